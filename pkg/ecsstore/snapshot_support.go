package ecsstore

import "github.com/ecspanse-go/ecspanse/pkg/ecstypes"

// AllComponents returns every live component row as a ComponentWrite,
// for pkg/ecssnapshot to enumerate and serialize. The returned slice
// is a snapshot at call time; later Store mutations do not affect it.
func (s *Store) AllComponents() []ComponentWrite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ComponentWrite, 0, len(s.components))
	for key, row := range s.components {
		out = append(out, ComponentWrite{Entity: key.Entity, Kind: key.Kind, Tags: row.Tags, Payload: row.Payload})
	}
	return out
}

// AllResources returns a snapshot of every live resource's payload,
// keyed by Kind, for pkg/ecssnapshot to enumerate and serialize.
func (s *Store) AllResources() map[ecstypes.Kind]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ecstypes.Kind]any, len(s.resources))
	for k, v := range s.resources {
		out[k] = v
	}
	return out
}
