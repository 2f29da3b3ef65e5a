package blueprint

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/fsutil"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/schema"
)

// Load discovers every .hcl file under path (a directory or a single
// file), decodes them, and merges them into one blueprint.
func Load(ctx context.Context, path string) (*model.Blueprint, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Blueprint loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering blueprint files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found under %s", path)
	}
	logger.Debug("Discovered blueprint files.", "count", len(files))

	parser := hclparse.NewParser()
	var roots []*schema.FileRoot
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse blueprint file %s: %w", file, diags)
		}

		var root schema.FileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode blueprint file %s: %w", file, diags)
		}
		roots = append(roots, &root)
	}

	bp, err := translate(roots)
	if err != nil {
		return nil, err
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Blueprint loaded.", "files", len(files),
		"objects", len(bp.Objects), "settings", len(bp.Settings), "has_features", bp.Features != nil)
	return bp, nil
}
