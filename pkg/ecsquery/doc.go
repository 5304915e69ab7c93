/*
Package ecsquery implements the engine's read-only Query API: a
fluent, declarative builder over a select tuple, zero or more
with/without filter groups, and exactly one scope selector, executed
against a *ecsstore.Store.

# Execution

Every Stream/One call runs the same five-step algorithm (spec §4.2):

 1. enumerate candidate entities under the scope;
 2. for each candidate, keep it iff at least one with/without group is
    satisfied (zero groups means "no filtering");
 3. for each retained candidate, fetch its required components — a
    required component concurrently removed between steps 1 and 3
    drops that candidate silently rather than erroring;
 4. attach optional components as present-or-absent markers;
 5. yield tuples in the select's declared order.

Relationship listings (children/descendants/parents/ancestors) are
memoized per (entity, Store.GraphVersion()) with single-flight
collapsing of concurrent misses for the same key, grounded on the
teacher's metrics.Collector cache-until-next-tick shape
(pkg/metrics/collector.go) generalized from "recompute every interval"
to "recompute on graph-version bump".
*/
package ecsquery
