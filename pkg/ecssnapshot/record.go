package ecssnapshot

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
	"github.com/ecspanse-go/ecspanse/pkg/ecstypes"
)

// componentRecord is one (entity, kind) row on the wire: Payload holds
// the raw JSON of the original payload so Restore can decode it into
// the type registered for Kind/Category in the restoring process,
// which may assign different numeric Kind tokens than the exporting
// one did.
type componentRecord struct {
	Entity   string          `json:"entity"`
	Category string          `json:"category"`
	Kind     string          `json:"kind"`
	Tags     []string        `json:"tags,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type resourceRecord struct {
	Category string          `json:"category"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

func componentKey(entity, kindName string) string {
	return entity + "|" + kindName
}

func encodeComponent(w ecsstore.ComponentWrite) (key string, data []byte, err error) {
	payload, err := json.Marshal(w.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("ecssnapshot: marshal payload for %s/%s: %w", w.Entity, w.Kind.Name(), err)
	}
	tags := make([]string, 0, len(w.Tags))
	for t := range w.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	rec := componentRecord{
		Entity:   string(w.Entity),
		Category: w.Kind.Category().String(),
		Kind:     w.Kind.Name(),
		Tags:     tags,
		Payload:  payload,
	}
	data, err = json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("ecssnapshot: marshal record for %s/%s: %w", w.Entity, w.Kind.Name(), err)
	}
	return componentKey(rec.Entity, rec.Kind), data, nil
}

func decodeComponent(data []byte) (ecsstore.ComponentWrite, error) {
	var rec componentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ecsstore.ComponentWrite{}, fmt.Errorf("ecssnapshot: unmarshal component record: %w", err)
	}
	category, err := categoryFromString(rec.Category)
	if err != nil {
		return ecsstore.ComponentWrite{}, err
	}
	kind, ok := ecstypes.LookupByName(category, rec.Kind)
	if !ok {
		return ecsstore.ComponentWrite{}, fmt.Errorf("ecssnapshot: no %s kind %q registered in this process", rec.Category, rec.Kind)
	}

	payload, err := decodePayload(kind, rec.Payload)
	if err != nil {
		return ecsstore.ComponentWrite{}, err
	}

	tags := make(map[string]struct{}, len(rec.Tags))
	for _, t := range rec.Tags {
		tags[t] = struct{}{}
	}

	return ecsstore.ComponentWrite{
		Entity:  ecstypes.EntityID(rec.Entity),
		Kind:    kind,
		Tags:    tags,
		Payload: payload,
	}, nil
}

func encodeResource(kind ecstypes.Kind, value any) (key string, data []byte, err error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", nil, fmt.Errorf("ecssnapshot: marshal resource %s: %w", kind.Name(), err)
	}
	rec := resourceRecord{
		Category: kind.Category().String(),
		Kind:     kind.Name(),
		Payload:  payload,
	}
	data, err = json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("ecssnapshot: marshal resource record %s: %w", kind.Name(), err)
	}
	return rec.Kind, data, nil
}

func decodeResource(data []byte) (ecstypes.Kind, any, error) {
	var rec resourceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, nil, fmt.Errorf("ecssnapshot: unmarshal resource record: %w", err)
	}
	category, err := categoryFromString(rec.Category)
	if err != nil {
		return 0, nil, err
	}
	kind, ok := ecstypes.LookupByName(category, rec.Kind)
	if !ok {
		return 0, nil, fmt.Errorf("ecssnapshot: no %s kind %q registered in this process", rec.Category, rec.Kind)
	}
	payload, err := decodePayload(kind, rec.Payload)
	if err != nil {
		return 0, nil, err
	}
	return kind, payload, nil
}

// decodePayload allocates a value of kind's registered payload type and
// decodes raw into it, so Restore hands the Store back the concrete Go
// type systems expect rather than a generic map[string]any.
func decodePayload(kind ecstypes.Kind, raw json.RawMessage) (any, error) {
	t := kind.PayloadType()
	if t == nil {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("ecssnapshot: unmarshal payload for %s: %w", kind.Name(), err)
		}
		return v, nil
	}
	ptr := newOfType(t)
	if err := json.Unmarshal(raw, ptr); err != nil {
		return nil, fmt.Errorf("ecssnapshot: unmarshal payload for %s: %w", kind.Name(), err)
	}
	return derefValue(ptr), nil
}

func categoryFromString(s string) (ecstypes.Category, error) {
	switch s {
	case "component":
		return ecstypes.Component, nil
	case "resource":
		return ecstypes.Resource, nil
	case "event":
		return ecstypes.EventKind, nil
	default:
		return 0, fmt.Errorf("ecssnapshot: unknown category %q", s)
	}
}
