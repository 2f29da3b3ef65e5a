// Package queries registers the "query" object family: saved queries over
// tenant records.
package queries

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the query family handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFamily(&registry.FamilyHandler{
		Family:    "query",
		KeyPrefix: "custquery_",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"record_type": cty.String,
			"filter":      cty.String,
			"columns":     cty.List(cty.String),
			"public":      cty.Bool,
		}, []string{"filter", "public"}),
	})
}
