package serializer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// cacheSize bounds the per-run memoization cache. Workspaces rarely exceed
// a few hundred elements; evictions just cost a re-serialization.
const cacheSize = 1024

// Document is one canonical JSON rendering of an element, ready for
// inclusion in a bundle.
type Document struct {
	// Body holds the document bytes. The rendering is deterministic: equal
	// elements always produce equal bytes.
	Body []byte
}

// Digest returns the hex sha256 of the document bytes.
func (d Document) Digest() string {
	sum := sha256.Sum256(d.Body)
	return hex.EncodeToString(sum[:])
}

// objectDoc is the wire shape of a keyed object document.
type objectDoc struct {
	Family     string          `json:"family"`
	Key        string          `json:"key"`
	Name       string          `json:"name"`
	Attributes json.RawMessage `json:"attributes"`
}

// settingsDoc is the wire shape of a settings document.
type settingsDoc struct {
	ConfigType string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

// featuresDoc is the wire shape of the feature toggle document.
type featuresDoc struct {
	Features map[string]bool `json:"features"`
}

// Serializer renders elements into canonical documents, memoizing results
// per element address. A Serializer is scoped to one run; elements are
// immutable for the lifetime of a run, so the cache never goes stale.
type Serializer struct {
	cache *lru.Cache[string, []Document]
}

// New creates a Serializer with an empty cache.
func New() *Serializer {
	cache, err := lru.New[string, []Document](cacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Serializer{cache: cache}
}

// Serialize renders one element into its canonical documents. Repeat calls
// for the same address are served from the cache and are therefore
// idempotent and cheap.
func (s *Serializer) Serialize(el model.Element) ([]Document, error) {
	addr := el.Addr().String()
	if docs, ok := s.cache.Get(addr); ok {
		return docs, nil
	}

	docs, err := render(el)
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", addr, err)
	}
	s.cache.Add(addr, docs)
	return docs, nil
}

// render produces the documents for one element without touching the cache.
func render(el model.Element) ([]Document, error) {
	switch e := el.(type) {
	case *model.ObjectElement:
		attrs, err := marshalAttributes(e.Attributes)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(objectDoc{
			Family:     e.Family,
			Key:        e.Key,
			Name:       e.Name,
			Attributes: attrs,
		})
		if err != nil {
			return nil, err
		}
		return []Document{{Body: body}}, nil

	case *model.SettingsElement:
		attrs, err := marshalAttributes(e.Attributes)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(settingsDoc{ConfigType: e.ConfigType, Attributes: attrs})
		if err != nil {
			return nil, err
		}
		return []Document{{Body: body}}, nil

	case *model.FeaturesElement:
		features := e.Enabled
		if features == nil {
			features = map[string]bool{}
		}
		body, err := json.Marshal(featuresDoc{Features: features})
		if err != nil {
			return nil, err
		}
		return []Document{{Body: body}}, nil

	default:
		return nil, fmt.Errorf("unknown element type %T", el)
	}
}

// marshalAttributes renders a cty attribute object as JSON. ctyjson emits
// object attributes in sorted order, which keeps the rendering
// deterministic, and encoding/json's map marshaling does the same for the
// feature toggle document.
func marshalAttributes(v cty.Value) (json.RawMessage, error) {
	if v == cty.NilVal {
		return json.RawMessage(`{}`), nil
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, fmt.Errorf("marshaling attributes: %w", err)
	}
	return raw, nil
}
