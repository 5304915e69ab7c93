/*
Package ecsstate implements the named-state resource and its
transition machinery (spec §4.5): a Machine declares a finite set of
string states and a default; GetState reads the live value;
SetState validates the target is declared, must be called from a
synchronous system, updates the resource immediately, and emits a
StateTransition event.

Transitions land in the Store immediately, but in_state/not_in_state
run-conditions must see a value that is stable for the whole frame
(spec §4.5: "this avoids mid-frame inconsistencies"). Snapshot exists
for exactly that: the scheduler takes one snapshot per frame at step 3
and evaluates every in_state/not_in_state run-condition against it,
rather than against the live, possibly-already-advanced resource.
*/
package ecsstate
