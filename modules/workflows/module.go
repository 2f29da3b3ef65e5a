// Package workflows registers the "workflow" object family: record state
// machines that trigger actions, frequently referencing scripts and forms.
package workflows

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the workflow family handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFamily(&registry.FamilyHandler{
		Family:    "workflow",
		KeyPrefix: "custworkflow_",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"record_type": cty.String,
			"trigger":     cty.String,
			"actions":     cty.List(cty.String),
			"released":    cty.Bool,
		}, []string{"actions", "released"}),
		RequiredFeatures: []string{"workflow_engine"},
	})
}
