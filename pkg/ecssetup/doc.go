/*
Package ecssetup is the host-facing registration DSL (spec §6): a
Builder accumulates startup/frame-start/batch/frame-end/shutdown and
event-subscribed system registrations, state-machine declarations, and
scheduler-level options (fps, a projection registry) in the order the
host calls them, then Build assembles them into a running
*ecsscheduler.Scheduler.

The boundary is deliberate: ecssetup only builds a Data value and
replays it onto a Scheduler in declaration order. Every scheduling
decision — batch placement, run-condition caching, event grouping —
still happens inside ecsscheduler.
*/
package ecssetup
