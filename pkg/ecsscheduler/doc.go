/*
Package ecsscheduler drives the frame loop: StartupPhase → FrameStart →
BatchPhase → FrameEnd → FrameIdle → FrameStart … with a terminal
Shutdown. It owns system registration (startup/frame-start/batch/
frame-end/shutdown, plus event-subscribed systems), registration-time
batching by disjoint locked-component sets with run_after placement,
run-condition evaluation-once-per-frame caching, event snapshot/
grouping/dispatch, fps-deadline pacing, and graceful shutdown.

The frame loop's ticker/select skeleton and "log the error, keep the
loop alive" failure posture are the same shape as the teacher's
Scheduler.run and Reconciler.run, re-timed to an fps deadline instead
of a fixed interval and re-scoped from "reconcile cluster state" to
"run phases and batches".
*/
package ecsscheduler
