package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValidateBlueprint performs a strict parity check between a loaded
// blueprint and the registered handlers: every object family and settings
// type must be registered, every object key must carry its family's
// prefix, and every attribute set must convert to its declared type.
func (r *Registry) ValidateBlueprint(ctx context.Context, bp *model.Blueprint) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, obj := range bp.Objects {
		handler, ok := r.Family(obj.Family)
		if !ok {
			errs = append(errs, fmt.Sprintf("object '%s.%s' uses unregistered family '%s'", obj.Family, obj.Name, obj.Family))
			continue
		}
		if !strings.HasPrefix(obj.Key, handler.KeyPrefix) {
			errs = append(errs, fmt.Sprintf("object '%s.%s' key '%s' must start with '%s'", obj.Family, obj.Name, obj.Key, handler.KeyPrefix))
		}
		if _, err := convert.Convert(obj.Attributes, handler.AttributeType); err != nil {
			errs = append(errs, fmt.Sprintf("object '%s.%s' attributes do not match the '%s' schema: %v", obj.Family, obj.Name, obj.Family, err))
		}
	}

	for _, settings := range bp.Settings {
		handler, ok := r.SettingsType(settings.ConfigType)
		if !ok {
			errs = append(errs, fmt.Sprintf("settings block uses unregistered configuration type '%s'", settings.ConfigType))
			continue
		}
		if _, err := convert.Convert(settings.Attributes, handler.AttributeType); err != nil {
			errs = append(errs, fmt.Sprintf("settings '%s' attributes do not match its schema: %v", settings.ConfigType, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("blueprint validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logger.Debug("Blueprint passed registry validation.",
		"objects", len(bp.Objects), "settings", len(bp.Settings))
	return nil
}

// RequiredFeatures collects the account features required by the families
// the blueprint actually uses, deduplicated and sorted. The deploy
// pipeline seeds its manifest include list with these.
func (r *Registry) RequiredFeatures(bp *model.Blueprint) []string {
	set := make(map[string]bool)
	for _, obj := range bp.Objects {
		handler, ok := r.Family(obj.Family)
		if !ok {
			continue
		}
		for _, feature := range handler.RequiredFeatures {
			set[feature] = true
		}
	}

	features := make([]string, 0, len(set))
	for feature := range set {
		features = append(features, feature)
	}
	sort.Strings(features)
	return features
}
