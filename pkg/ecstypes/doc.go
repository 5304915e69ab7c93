/*
Package ecstypes defines the primitive vocabulary shared by every other
ecspanse package: entity identifiers, the dense type-id tokens used to
name component/resource/event kinds, and the small per-kind vtable
(tags, optional payload validation) that stands in for runtime
reflection.

# Design

Every kind of thing the engine stores — a component type, a resource
type, an event type — is represented by a [Kind], a small integer
assigned once at [Register] time, never by a string or a reflected
struct tag. [Register] is generic over the payload struct and returns a
typed [Kind] handle; the registry backing it is a single
process-wide table guarded by a mutex, written only during package
init in practice but safe to call at any time.

	┌────────────────────── KIND REGISTRY ───────────────────────┐
	│                                                             │
	│  Register[Position](ecstypes.Component, "position")        │
	│       │                                                     │
	│       ▼                                                     │
	│  Kind(3) ──► entry{ name, tags, validate, payloadType }     │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Tags are fixed at registration and optionally extended per-instance at
insert time (spec invariant C2: a component's tag set never changes
after it is created; changing it means remove then add).
*/
package ecstypes
