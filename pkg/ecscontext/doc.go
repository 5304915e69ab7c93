/*
Package ecscontext defines SystemContext, the explicit, immutable
handle that identifies "which system, running how" is making a
Query/Command call.

Spec §9 is explicit that the source's ambient process-dictionary
context ("process dictionary as ambient context (:ecs_process_type,
locked components, etc.)") must not be copied faithfully: "Pass an
explicit, immutable SystemContext handle into every Query/Command
call; store it in thread-local or task-local storage only as a
concession to ergonomics, never as the source of truth." This package
does exactly that — SystemContext is a plain value callers pass
explicitly, with a context.Context-keyed convenience accessor for code
that would rather not thread it through every call signature.
*/
package ecscontext
