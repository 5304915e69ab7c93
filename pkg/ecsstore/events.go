package ecsstore

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// EventRecord is one enqueued event: its kind, the batch key E1 uses
// to collapse duplicates within a scheduler batch, and its payload.
type EventRecord struct {
	Kind     ecstypes.Kind
	BatchKey string
	Payload  any
	Inserted time.Time
}

type eventTable struct {
	mu      sync.Mutex
	records []EventRecord
}

func (t *eventTable) append(rec EventRecord) {
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

func (t *eventTable) drain() []EventRecord {
	t.mu.Lock()
	out := t.records
	t.records = nil
	t.mu.Unlock()
	return out
}

// eventTables implements the dual current/draining event table (spec
// §4.1, §9): a single atomic index names which of two tables is
// "current" (open for producers); DrainEvents flips the index so a
// fresh table immediately starts absorbing new events, then reads and
// clears the table the index used to point at.
type eventTables struct {
	tables     [2]*eventTable
	currentIdx atomic.Int32
}

func (e *eventTables) init() {
	e.tables[0] = &eventTable{}
	e.tables[1] = &eventTable{}
}

// Enqueue appends an event to whichever table is currently open. It
// never blocks on drain and never fails: E1's per-batch collapsing by
// (kind, batch_key) is the scheduler's job when it snapshots a batch,
// not the Store's.
func (s *Store) Enqueue(kind ecstypes.Kind, batchKey string, payload any) {
	idx := s.events.currentIdx.Load()
	s.events.tables[idx].append(EventRecord{
		Kind:     kind,
		BatchKey: batchKey,
		Payload:  payload,
		Inserted: time.Now(),
	})
}

// DrainEvents swaps the current/draining roles and returns every event
// accumulated since the last drain, ordered by insertion time so E2's
// delivery-order guarantees have a stable basis. Called once per frame
// by the scheduler at frame start, before any of the frame's systems run.
func (s *Store) DrainEvents() []EventRecord {
	old := s.events.currentIdx.Load()
	next := 1 - old
	s.events.currentIdx.Store(next)

	records := s.events.tables[old].drain()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Inserted.Before(records[j].Inserted)
	})
	return records
}
