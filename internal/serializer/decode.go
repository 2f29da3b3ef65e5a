package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/vk/tenantgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Decode is the reverse of Serialize: it turns one tenant document back
// into a model element. Fetch uses it when importing remote state.
//
// The document shape is detected from its fields: a "features" field means
// the feature toggle document, a "type" field means settings, and a "key"
// field means a keyed object.
func Decode(body []byte) (model.Element, error) {
	var probe struct {
		Family     string          `json:"family"`
		Key        string          `json:"key"`
		Name       string          `json:"name"`
		ConfigType string          `json:"type"`
		Attributes json.RawMessage `json:"attributes"`
		Features   map[string]bool `json:"features"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}

	switch {
	case probe.Features != nil:
		return &model.FeaturesElement{Enabled: probe.Features}, nil

	case probe.ConfigType != "":
		attrs, err := unmarshalAttributes(probe.Attributes)
		if err != nil {
			return nil, fmt.Errorf("decoding settings %q: %w", probe.ConfigType, err)
		}
		return &model.SettingsElement{ConfigType: probe.ConfigType, Attributes: attrs}, nil

	case probe.Key != "":
		if probe.Family == "" || probe.Name == "" {
			return nil, fmt.Errorf("object document for key %q is missing family or name", probe.Key)
		}
		attrs, err := unmarshalAttributes(probe.Attributes)
		if err != nil {
			return nil, fmt.Errorf("decoding object %q: %w", probe.Key, err)
		}
		return &model.ObjectElement{
			Family:     probe.Family,
			Name:       probe.Name,
			Key:        probe.Key,
			Attributes: attrs,
		}, nil

	default:
		return nil, fmt.Errorf("document matches no known element shape")
	}
}

// unmarshalAttributes reads an attribute object back into a cty value,
// inferring the type from the JSON structure itself.
func unmarshalAttributes(raw json.RawMessage) (cty.Value, error) {
	if len(raw) == 0 {
		return cty.EmptyObjectVal, nil
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}
