/*
Package ecserrors implements the engine's error taxonomy: a fixed set
of [Kind] values (ArgumentShape, NotFound, AlreadyExists, NotLocked,
WrongPhase, InvalidPayload, MultipleResults, NonBooleanRunCondition,
DuplicateCommitKey, MustRunInSystem) and a single wrapping [Error] type, instead of a
constellation of ad-hoc sentinel errors or exceptions-for-control-flow
(spec §9: "per-system exceptions-for-control-flow ... translate to
result types at the command layer").
*/
package ecserrors
