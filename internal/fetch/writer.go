package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// writeObjectsFile renders one family's elements as <family>.hcl. An empty
// family still gets a file, so a later fetch that finds objects gone
// leaves an empty file rather than a stale one.
func writeObjectsFile(outDir, family string, elements []*model.ObjectElement) error {
	file := hclwrite.NewEmptyFile()
	body := file.Body()

	for i, el := range elements {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("object", []string{el.Family, el.Name})
		block.Body().SetAttributeValue("key", cty.StringVal(el.Key))
		writeAttributes(block.Body(), el.Attributes)
	}

	return writeFile(outDir, family+".hcl", file)
}

// writeSettingsFile renders all settings elements as settings.hcl.
func writeSettingsFile(outDir string, elements []*model.SettingsElement) error {
	file := hclwrite.NewEmptyFile()
	body := file.Body()

	sort.Slice(elements, func(i, j int) bool { return elements[i].ConfigType < elements[j].ConfigType })
	for i, el := range elements {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("settings", []string{el.ConfigType})
		writeAttributes(block.Body(), el.Attributes)
	}

	return writeFile(outDir, "settings.hcl", file)
}

// writeFeaturesFile renders the feature toggle state as features.hcl,
// split back into the enabled/disabled lists the blueprint language uses.
func writeFeaturesFile(outDir string, features *model.FeaturesElement) error {
	var enabled, disabled []string
	for _, id := range features.FeatureIDs() {
		if features.Enabled[id] {
			enabled = append(enabled, id)
		} else {
			disabled = append(disabled, id)
		}
	}

	file := hclwrite.NewEmptyFile()
	block := file.Body().AppendNewBlock("features", nil)
	if len(enabled) > 0 {
		block.Body().SetAttributeValue("enabled", stringList(enabled))
	}
	if len(disabled) > 0 {
		block.Body().SetAttributeValue("disabled", stringList(disabled))
	}

	return writeFile(outDir, "features.hcl", file)
}

// writeAttributes appends an attributes block with the element's values in
// sorted order.
func writeAttributes(body *hclwrite.Body, attrs cty.Value) {
	block := body.AppendNewBlock("attributes", nil)
	if attrs == cty.NilVal || attrs.IsNull() || !attrs.Type().IsObjectType() {
		return
	}

	values := attrs.AsValueMap()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		block.Body().SetAttributeValue(name, values[name])
	}
}

func stringList(items []string) cty.Value {
	values := make([]cty.Value, len(items))
	for i, item := range items {
		values[i] = cty.StringVal(item)
	}
	return cty.ListVal(values)
}

func writeFile(outDir, name string, file *hclwrite.File) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating blueprint directory: %w", err)
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, file.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
