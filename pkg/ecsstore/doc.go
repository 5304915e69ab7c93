/*
Package ecsstore implements the engine's Store: the concurrent,
in-memory table of components keyed by (entity, component kind), the
table of singleton resources keyed by kind, and the dual append-only
per-frame event tables.

# Architecture

Adapted from the teacher's storage.Store interface / storage.BoltStore
split (one method pair per entity kind, get/list/update/delete
symmetry), with bbolt buckets replaced by plain Go maps guarded by a
RWMutex, because the engine's live Store is explicitly not a
persistence layer (spec §1 Non-goals):

	┌──────────────────── IN-MEMORY STORE ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Store                            │          │
	│  │  - components: map[(entity,kind)]row         │          │
	│  │  - entityKinds: map[entity]set[kind]         │          │
	│  │  - tagIndex: map[tag]set[(entity,kind)]      │          │
	│  │  - resources: map[kind]payload               │          │
	│  │  - graphVersion: atomic counter              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Dual Event Tables                    │          │
	│  │  - tables[0], tables[1]                      │          │
	│  │  - currentIdx: atomic, names the "current"   │          │
	│  │    (filling) table; DrainEvents swaps it and │          │
	│  │    returns the other, now-draining, table    │          │
	│  └────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘

Invariants C1 (one live component per (entity,kind)), S1 (one live
resource per kind), E1/E2 (event batching key, next-frame delivery) are
enforced here or by the Command executor that is Store's only writer;
Store itself never blocks a reader on a writer beyond the scheduler's
batch invariant (spec §5).
*/
package ecsstore
