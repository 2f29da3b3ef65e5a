// Package records registers the "record" object family: custom record type
// definitions, the usual dependency root of larger customizations.
package records

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the record family handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFamily(&registry.FamilyHandler{
		Family:    "record",
		KeyPrefix: "custrecord_",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"label":       cty.String,
			"description": cty.String,
			"fields":      cty.Map(cty.String),
		}, []string{"description", "fields"}),
	})
}
