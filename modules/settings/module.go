// Package settings registers the supported configuration types. Settings
// have no keys; the tenant addresses them by type name, and failure
// reports do too.
package settings

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the known configuration types with the central
// registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSettings(&registry.SettingsHandler{
		ConfigType: "accounting_prefs",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"fiscal_year_start":  cty.String,
			"base_currency":      cty.String,
			"multi_book_enabled": cty.Bool,
		}, []string{"base_currency", "multi_book_enabled"}),
	})
	r.RegisterSettings(&registry.SettingsHandler{
		ConfigType: "company_info",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"legal_name": cty.String,
			"timezone":   cty.String,
		}, []string{"timezone"}),
	})
}
