// Package schema defines the Go struct mapping of the blueprint HCL
// blocks. It is consumed exclusively by internal/blueprint, which decodes
// files against these shapes and translates them into the model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// AttributesBlock holds the raw body of an 'attributes' block. Attribute
// expressions stay undecoded here; the blueprint loader evaluates them.
type AttributesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Object represents an `object "<family>" "<name>"` block.
type Object struct {
	Family     string           `hcl:"family,label"`
	Name       string           `hcl:"name,label"`
	Key        string           `hcl:"key"`
	Attributes *AttributesBlock `hcl:"attributes,block"`
}

// Settings represents a `settings "<config_type>"` block.
type Settings struct {
	ConfigType string           `hcl:"config_type,label"`
	Attributes *AttributesBlock `hcl:"attributes,block"`
}

// Features represents the `features` block. A workspace declares at most
// one across all of its files.
type Features struct {
	Enabled  []string `hcl:"enabled,optional"`
	Disabled []string `hcl:"disabled,optional"`
}

// Workspace represents the `workspace` block.
type Workspace struct {
	Families []string `hcl:"families"`
}

// Deploy represents the `deploy` block.
type Deploy struct {
	IncludeFeatures []string `hcl:"include_features,optional"`
	ValidateOnly    bool     `hcl:"validate_only,optional"`
}

// FileRoot decodes all possible top-level blocks from any blueprint file.
type FileRoot struct {
	Objects    []*Object    `hcl:"object,block"`
	Settings   []*Settings  `hcl:"settings,block"`
	Features   []*Features  `hcl:"features,block"`
	Workspaces []*Workspace `hcl:"workspace,block"`
	Deploys    []*Deploy    `hcl:"deploy,block"`
	Remain     hcl.Body     `hcl:",remain"`
}
