/*
Package ecssnapshot is the optional, out-of-core export/import utility
spec §6 names: the live Store is never persisted by the engine itself,
but a host that wants one can export every entity's components and
every resource to a bbolt file, or to a YAML stream for human
inspection, and later Restore them into a fresh Store.

Export/Restore are bucket-per-category, JSON-payload-per-row, the same
shape as the teacher's storage.BoltStore, adapted from "one bucket per
cluster-resource-type, one JSON blob per ID" to "one bucket per
component/resource, one JSON blob per (entity, kind) or kind."
*/
package ecssnapshot
