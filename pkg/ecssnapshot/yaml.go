package ecssnapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

// yamlComponent and yamlResource mirror componentRecord/resourceRecord
// but decode Payload into a generic any so it renders as nested YAML
// instead of an opaque JSON-string blob; this stream is for human
// inspection, never read back by Restore.
type yamlComponent struct {
	Entity   string   `yaml:"entity"`
	Category string   `yaml:"category"`
	Kind     string   `yaml:"kind"`
	Tags     []string `yaml:"tags,omitempty"`
	Payload  any      `yaml:"payload"`
}

type yamlResource struct {
	Category string `yaml:"category"`
	Kind     string `yaml:"kind"`
	Payload  any    `yaml:"payload"`
}

type yamlSnapshot struct {
	Components []yamlComponent `yaml:"components"`
	Resources  []yamlResource  `yaml:"resources"`
}

// ExportYAML writes every live component and resource in store to w as
// a single human-readable YAML document, for inspection during
// debugging. Export/Restore, not this function, are the round-trip
// path.
func ExportYAML(w io.Writer, store *ecsstore.Store) error {
	snap := yamlSnapshot{}

	for _, cw := range store.AllComponents() {
		_, data, err := encodeComponent(cw)
		if err != nil {
			return err
		}
		var rec componentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("ecssnapshot: decode component for yaml: %w", err)
		}
		var payload any
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("ecssnapshot: decode payload for yaml: %w", err)
		}
		snap.Components = append(snap.Components, yamlComponent{
			Entity: rec.Entity, Category: rec.Category, Kind: rec.Kind, Tags: rec.Tags, Payload: payload,
		})
	}
	sort.Slice(snap.Components, func(i, j int) bool {
		if snap.Components[i].Entity != snap.Components[j].Entity {
			return snap.Components[i].Entity < snap.Components[j].Entity
		}
		return snap.Components[i].Kind < snap.Components[j].Kind
	})

	for kind, value := range store.AllResources() {
		_, data, err := encodeResource(kind, value)
		if err != nil {
			return err
		}
		var rec resourceRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("ecssnapshot: decode resource for yaml: %w", err)
		}
		var payload any
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return fmt.Errorf("ecssnapshot: decode payload for yaml: %w", err)
		}
		snap.Resources = append(snap.Resources, yamlResource{Category: rec.Category, Kind: rec.Kind, Payload: payload})
	}
	sort.Slice(snap.Resources, func(i, j int) bool { return snap.Resources[i].Kind < snap.Resources[j].Kind })

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(snap)
}
