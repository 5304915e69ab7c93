package ecsscheduler

import (
	"fmt"
	"sync"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
	"github.com/ecspanse-go/ecspanse/pkg/ecslog"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// groupEvents partitions a frame's drained, already-time-sorted events
// into ordered groups such that within one group every (Kind, BatchKey)
// pair is unique; an event whose key already appears in a group spills
// into the next group that doesn't have it yet (spec §4.4 step 2's
// "carry-over"). Greedy, first-fit, stable on the input order.
func groupEvents(records []ecsstore.EventRecord) [][]ecsstore.EventRecord {
	var groups [][]ecsstore.EventRecord
	for _, rec := range records {
		key := eventKey(rec)
		placed := false
		for i := range groups {
			if !groupHasKey(groups[i], key) {
				groups[i] = append(groups[i], rec)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []ecsstore.EventRecord{rec})
		}
	}
	return groups
}

func eventKey(r ecsstore.EventRecord) string {
	return fmt.Sprintf("%d:%s", r.Kind, r.BatchKey)
}

func groupHasKey(group []ecsstore.EventRecord, key string) bool {
	for _, r := range group {
		if eventKey(r) == key {
			return true
		}
	}
	return false
}

// dispatchEventSystems runs every event-subscribed system in batch
// once per event in group that matches one of its declared kinds.
// Invocations for different (system, serialization key) pairs run
// concurrently; invocations sharing a key run in group order.
func (s *Scheduler) dispatchEventSystems(batch []*registeredSystem, group []ecsstore.EventRecord, rc RunConditionContext) {
	type task struct {
		rs  *registeredSystem
		rec ecsstore.EventRecord
	}
	buckets := make(map[string][]task)
	var order []string
	for _, rs := range batch {
		if !rs.isEventSubscribed() {
			continue
		}
		ok, err := allTrue(rc, rs.conditions)
		if err != nil {
			ecslog.WithSystem(rs.name).Error().Err(err).Msg("run-condition evaluation failed, skipping")
			continue
		}
		if !ok {
			continue
		}
		for _, rec := range group {
			if !kindMatches(rs.eventKinds, rec.Kind) {
				continue
			}
			key := rs.name
			if rs.batchKeyFn != nil {
				key = rs.name + "|" + rs.batchKeyFn(rec)
			}
			if _, seen := buckets[key]; !seen {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], task{rs: rs, rec: rec})
		}
	}

	var wg sync.WaitGroup
	for _, key := range order {
		tasks := buckets[key]
		wg.Add(1)
		go func(tasks []task) {
			defer wg.Done()
			for _, t := range tasks {
				sc := ecscontext.SystemContext{
					SystemName: t.rs.name,
					Mode:       ecscontext.Async,
					Locked:     t.rs.locked,
					Frame:      rc.Frame,
				}
				if err := t.rs.eventFn(sc, t.rec); err != nil {
					ecslog.WithSystem(t.rs.name).Error().Err(err).Uint64("frame", rc.Frame).Msg("event system returned error")
				}
			}
		}(tasks)
	}
	wg.Wait()
}

func kindMatches(kinds []ecstypes.Kind, k ecstypes.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
