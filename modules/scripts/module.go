// Package scripts registers the "script" object family: server-side
// scripts attached to tenant events, the most cross-referenced family in
// practice (scripts call other scripts and render forms by key).
package scripts

import (
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the script family handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFamily(&registry.FamilyHandler{
		Family:    "script",
		KeyPrefix: "custscript_",
		AttributeType: cty.ObjectWithOptionalAttrs(map[string]cty.Type{
			"source":      cty.String,
			"description": cty.String,
			"deployed":    cty.Bool,
			"log_level":   cty.String,
		}, []string{"description", "deployed", "log_level"}),
		RequiredFeatures: []string{"server_scripting"},
	})
}
