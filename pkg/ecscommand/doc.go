/*
Package ecscommand implements the engine's Command executor: the only
path by which game/application code may mutate a *ecsstore.Store.

Every exported operation (Spawn, Despawn, AddComponent, AddChildren,
UpsertResource, ...) runs the same four-step pipeline spec §4.3
describes:

 1. gate the call on the caller's ecscontext.SystemContext (phase and
    declared locks);
 2. validate every sub-request concurrently;
 3. compute a mutation plan (inserts, updates, deletes, relationship
    mirroring);
 4. commit in order — inserts, then updates, then deletes — then
    enqueue lifecycle events for delivery next frame.

A caller with no SystemContext (SystemName == "") is rejected with
MustRunInSystem before any of that runs: exceptions are raised before
work starts, not midway through a partial commit. The teacher's
manager.WarrenFSM.Apply (pkg/manager/fsm.go) feeds one envelope type
through a per-operation switch; here each operation is its own
Executor method instead, with no envelope or switch, and runs
synchronously inside a system's call.
*/
package ecscommand
