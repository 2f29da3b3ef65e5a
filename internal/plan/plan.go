// Package plan classifies local blueprint elements against the remote
// inventory at digest level: absent remotely means addition, a differing
// digest means modification, an identical digest means no change. It never
// computes field-level diffs.
package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/vk/tenantgridgo/internal/tenant"
)

// InventoryClient is the slice of the tenant client the planner needs.
type InventoryClient interface {
	ListObjects(ctx context.Context, family string) ([]tenant.RemoteObject, error)
	ImportSettings(ctx context.Context, configType string) (json.RawMessage, error)
	ListFeatures(ctx context.Context) (map[string]bool, error)
}

// Inventory is a point-in-time snapshot of the remote state, reduced to
// what classification needs.
type Inventory struct {
	// Objects maps object key to its remote summary.
	Objects map[string]tenant.RemoteObject
	// SettingsDigests maps configuration type to the digest of its remote
	// document.
	SettingsDigests map[string]string
	// Features is the remote feature toggle state.
	Features map[string]bool
}

// FetchInventory snapshots the remote state for the given families and
// configuration types.
func FetchInventory(ctx context.Context, client InventoryClient, families, configTypes []string) (*Inventory, error) {
	inv := &Inventory{
		Objects:         make(map[string]tenant.RemoteObject),
		SettingsDigests: make(map[string]string),
	}

	for _, family := range families {
		objects, err := client.ListObjects(ctx, family)
		if err != nil {
			return nil, err
		}
		for _, obj := range objects {
			inv.Objects[obj.Key] = obj
		}
	}

	for _, configType := range configTypes {
		doc, err := client.ImportSettings(ctx, configType)
		if err != nil {
			return nil, err
		}
		inv.SettingsDigests[configType] = serializer.Document{Body: doc}.Digest()
	}

	features, err := client.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	inv.Features = features

	return inv, nil
}

// Plan compares the blueprint against the inventory and returns the
// changes to deploy, objects first, then settings, then features.
func Plan(ctx context.Context, bp *model.Blueprint, inv *Inventory, ser *serializer.Serializer) ([]model.Change, error) {
	logger := ctxlog.FromContext(ctx)
	var changes []model.Change

	for _, obj := range bp.Objects {
		docs, err := ser.Serialize(obj)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", obj.Addr(), err)
		}

		remote, exists := inv.Objects[obj.Key]
		switch {
		case !exists:
			changes = append(changes, model.Change{
				Addr: obj.Addr(), Key: obj.Key, Kind: model.Addition, Desired: obj,
			})
		case docs[0].Digest() != remote.Digest:
			changes = append(changes, model.Change{
				Addr: obj.Addr(), Key: obj.Key, Kind: model.Modification, Desired: obj,
			})
		default:
			logger.Debug("Object unchanged, skipping.", "addr", obj.Addr().String())
		}
	}

	for _, settings := range bp.Settings {
		docs, err := ser.Serialize(settings)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", settings.Addr(), err)
		}
		// Settings always exist remotely; only a digest mismatch matters.
		if docs[0].Digest() == inv.SettingsDigests[settings.ConfigType] {
			logger.Debug("Settings unchanged, skipping.", "addr", settings.Addr().String())
			continue
		}
		changes = append(changes, model.Change{
			Addr: settings.Addr(), Kind: model.Modification, Desired: settings,
		})
	}

	if bp.Features != nil {
		if delta := featureMismatch(bp.Features.Enabled, inv.Features); delta {
			changes = append(changes, model.Change{
				Addr:    bp.Features.Addr(),
				Kind:    model.Modification,
				Desired: bp.Features,
				Prior:   &model.FeaturesElement{Enabled: inv.Features},
			})
		} else {
			logger.Debug("Features unchanged, skipping.")
		}
	}

	logger.Info("Plan computed.", "changes", len(changes))
	return changes, nil
}

// featureMismatch reports whether any locally declared toggle differs from
// the remote state. Features absent from the blueprint are never touched
// and never count.
func featureMismatch(desired, remote map[string]bool) bool {
	for id, want := range desired {
		if remote[id] != want {
			return true
		}
	}
	return false
}
