/*
Package ecsprojection implements the projection runtime (spec §4.6):
each projection is a long-lived actor, parameterized by caller-supplied
attrs, that computes a typed result by running an Update function
against the Store. The result is a tagged variant: Loading, Ok(T),
Error(err), or Halt. A Registry's UpdateAll, invoked once per frame by
the scheduler, refreshes every live projection concurrently; after each
refresh a projection fires OnChange(attrs, new, old) unless the new
result is Halt, and Halt freezes the projection at its last non-halt
result until a later Update call returns something else.

Each projection actor is a goroutine selecting on an update-request
channel and a stop channel, the same shape as the teacher's event
broker loop, generalized from "rebroadcast one event to N subscriber
channels" to "poll one user Update function once per frame and diff
the result against what was there before."
*/
package ecsprojection
