// Package forms registers the "form" object family: customized entry and
// transaction forms.
package forms

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the form family handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFamily(&registry.FamilyHandler{
		Family:    "form",
		KeyPrefix: "custform_",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"record_type": cty.String,
			"layout":      cty.String,
			"preferred":   cty.Bool,
		}, []string{"layout", "preferred"}),
	})
}
