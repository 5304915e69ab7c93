package ecsscheduler

import (
	"fmt"

	"github.com/ecspanse-go/ecspanse/pkg/ecscontext"
)

// placeBatchSystem inserts rs into s.batches per the registration-time
// rule (spec §4.4): earliest existing batch whose union of locked
// types is disjoint from rs's, starting the search no earlier than the
// batch right after the latest predecessor named in run_after. A
// predecessor's batch always wins over lock-compatibility — a batch
// that would otherwise be compatible, but sits at or before a named
// predecessor's batch, is never used.
func (s *Scheduler) placeBatchSystem(rs *registeredSystem) {
	minIdx := 0
	for _, pred := range rs.runAfter {
		idx, ok := s.batchIndexByName[pred]
		if !ok {
			panic(fmt.Sprintf("ecsscheduler: run_after predecessor %q registered after %q", pred, rs.name))
		}
		if idx+1 > minIdx {
			minIdx = idx + 1
		}
	}

	for i := minIdx; i < len(s.batches); i++ {
		if batchCompatible(s.batches[i], rs.locked) {
			s.batches[i] = append(s.batches[i], rs)
			s.batchIndexByName[rs.name] = i
			return
		}
	}
	s.batches = append(s.batches, []*registeredSystem{rs})
	s.batchIndexByName[rs.name] = len(s.batches) - 1
}

func batchCompatible(batch []*registeredSystem, locked []ecscontext.LockedType) bool {
	for _, existing := range batch {
		for _, a := range existing.locked {
			for _, b := range locked {
				if a.Conflicts(b) {
					return false
				}
			}
		}
	}
	return true
}
