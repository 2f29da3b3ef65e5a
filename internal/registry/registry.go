package registry

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all family modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// FamilyHandler describes one object family's contract.
type FamilyHandler struct {
	// Family is the family name used in blueprint blocks, e.g. "script".
	Family string
	// KeyPrefix is the mandatory object key prefix, e.g. "custscript_".
	KeyPrefix string
	// AttributeType is the cty type object attributes must convert to.
	AttributeType cty.Type
	// RequiredFeatures lists account features any deploy touching this
	// family depends on; they seed the bundle manifest's include list.
	RequiredFeatures []string
}

// SettingsHandler describes one configuration type's contract.
type SettingsHandler struct {
	// ConfigType is the configuration type name, e.g. "accounting_prefs".
	ConfigType string
	// AttributeType is the cty type the settings attributes must convert to.
	AttributeType cty.Type
}

// Registry holds all the registered family and settings handlers for a
// single application instance.
type Registry struct {
	FamilyRegistry   map[string]*FamilyHandler
	SettingsRegistry map[string]*SettingsHandler
}

// New creates and initializes a new Registry instance, registering the
// provided modules in order.
func New(modules ...Module) *Registry {
	r := &Registry{
		FamilyRegistry:   make(map[string]*FamilyHandler),
		SettingsRegistry: make(map[string]*SettingsHandler),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterFamily adds a family handler. Registering the same family twice
// panics: that is a wiring bug, not a runtime condition.
func (r *Registry) RegisterFamily(h *FamilyHandler) {
	if _, dup := r.FamilyRegistry[h.Family]; dup {
		panic("family registered twice: " + h.Family)
	}
	r.FamilyRegistry[h.Family] = h
}

// RegisterSettings adds a settings-type handler.
func (r *Registry) RegisterSettings(h *SettingsHandler) {
	if _, dup := r.SettingsRegistry[h.ConfigType]; dup {
		panic("settings type registered twice: " + h.ConfigType)
	}
	r.SettingsRegistry[h.ConfigType] = h
}

// Family looks up the handler for one family name.
func (r *Registry) Family(name string) (*FamilyHandler, bool) {
	h, ok := r.FamilyRegistry[name]
	return h, ok
}

// SettingsType looks up the handler for one configuration type.
func (r *Registry) SettingsType(name string) (*SettingsHandler, bool) {
	h, ok := r.SettingsRegistry[name]
	return h, ok
}

// Families returns the registered family names in sorted order.
func (r *Registry) Families() []string {
	names := make([]string, 0, len(r.FamilyRegistry))
	for name := range r.FamilyRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SettingsTypes returns the registered configuration type names in sorted
// order.
func (r *Registry) SettingsTypes() []string {
	names := make([]string, 0, len(r.SettingsRegistry))
	for name := range r.SettingsRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
