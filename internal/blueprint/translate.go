package blueprint

import (
	"fmt"

	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translate merges the decoded file roots into one model.Blueprint,
// enforcing the cross-file singletons (features, workspace, deploy).
func translate(roots []*schema.FileRoot) (*model.Blueprint, error) {
	bp := &model.Blueprint{}

	for _, root := range roots {
		for _, obj := range root.Objects {
			attrs, err := evalAttributes(obj.Attributes)
			if err != nil {
				return nil, fmt.Errorf("object %q %q: %w", obj.Family, obj.Name, err)
			}
			bp.Objects = append(bp.Objects, &model.ObjectElement{
				Family:     obj.Family,
				Name:       obj.Name,
				Key:        obj.Key,
				Attributes: attrs,
			})
		}

		for _, s := range root.Settings {
			attrs, err := evalAttributes(s.Attributes)
			if err != nil {
				return nil, fmt.Errorf("settings %q: %w", s.ConfigType, err)
			}
			bp.Settings = append(bp.Settings, &model.SettingsElement{
				ConfigType: s.ConfigType,
				Attributes: attrs,
			})
		}

		for _, f := range root.Features {
			if bp.Features != nil {
				return nil, fmt.Errorf("multiple features blocks declared; a workspace may have at most one")
			}
			features, err := translateFeatures(f)
			if err != nil {
				return nil, err
			}
			bp.Features = features
		}

		for _, w := range root.Workspaces {
			if bp.Workspace != nil {
				return nil, fmt.Errorf("multiple workspace blocks declared; a workspace may have at most one")
			}
			bp.Workspace = &model.Workspace{Families: w.Families}
		}

		for _, d := range root.Deploys {
			if bp.Deploy != nil {
				return nil, fmt.Errorf("multiple deploy blocks declared; a workspace may have at most one")
			}
			bp.Deploy = &model.DeploySettings{
				IncludeFeatures: d.IncludeFeatures,
				ValidateOnly:    d.ValidateOnly,
			}
		}
	}

	return bp, nil
}

// translateFeatures folds the enabled/disabled lists into the single
// toggle map. A feature named in both lists is an error caught here rather
// than silently last-wins.
func translateFeatures(f *schema.Features) (*model.FeaturesElement, error) {
	enabled := make(map[string]bool, len(f.Enabled)+len(f.Disabled))
	for _, id := range f.Enabled {
		enabled[id] = true
	}
	for _, id := range f.Disabled {
		if enabled[id] {
			return nil, fmt.Errorf("feature %q is both enabled and disabled", id)
		}
		enabled[id] = false
	}
	return &model.FeaturesElement{Enabled: enabled}, nil
}

// evalAttributes evaluates every attribute expression in an attributes
// block to a concrete cty value. Blueprint attributes are literals; an
// expression needing variables is rejected with the HCL diagnostic.
func evalAttributes(block *schema.AttributesBlock) (cty.Value, error) {
	if block == nil {
		return cty.EmptyObjectVal, nil
	}

	hclAttrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("reading attributes: %w", diags)
	}

	values := make(map[string]cty.Value, len(hclAttrs))
	for name, attr := range hclAttrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, fmt.Errorf("evaluating attribute %q: %w", name, diags)
		}
		values[name] = val
	}
	if len(values) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(values), nil
}
