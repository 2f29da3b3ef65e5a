package deploy

import (
	"context"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
)

// expandToDependents takes the base-failed root addresses and widens them
// to everything transitively depending on them.
func expandToDependents(deps *Dependencies, baseFailed []string) map[string]bool {
	removal := make(map[string]bool)
	for _, addr := range baseFailed {
		for _, node := range deps.Graph.TransitiveDependents(addr) {
			removal[node.Addr] = true
		}
	}
	return removal
}

// restrictToBatch drops removal entries whose change is no longer in the
// current batch. The graph and dependency map cover the original batch, so
// a failure report naming only already-dropped changes would otherwise
// yield a non-empty removal set that removes nothing, and the loop would
// resubmit the identical bundle forever.
func restrictToBatch(removal map[string]bool, batch []model.Change) map[string]bool {
	current := make(map[string]bool, len(batch))
	for _, change := range batch {
		current[change.RootAddr().String()] = true
	}

	restricted := make(map[string]bool, len(removal))
	for addr := range removal {
		if current[addr] {
			restricted[addr] = true
		}
	}
	return restricted
}

// everything marks the whole current batch for removal. This is the
// fail-safe for failures whose reported objects cannot be mapped back to
// any change still in the batch: resubmitting anything would risk
// repeating an unresolvable rejection forever.
func everything(batch []model.Change) map[string]bool {
	removal := make(map[string]bool, len(batch))
	for _, change := range batch {
		removal[change.RootAddr().String()] = true
	}
	return removal
}

// removeFromBatch returns the batch without the changes whose root address
// is in removal, preserving order. Sub-changes are removed alongside their
// root.
func removeFromBatch(batch []model.Change, removal map[string]bool) []model.Change {
	kept := make([]model.Change, 0, len(batch))
	for _, change := range batch {
		if !removal[change.RootAddr().String()] {
			kept = append(kept, change)
		}
	}
	return kept
}

// reduceManifestValidation handles a missing-dependency rejection: every
// change whose recorded references intersect the missing keys is
// base-failed, then expanded to its dependents and restricted to the
// current batch. An empty result falls back to dropping the entire batch.
func reduceManifestValidation(ctx context.Context, deps *Dependencies, batch []model.Change, missingKeys []string) map[string]bool {
	missing := make(map[string]bool, len(missingKeys))
	for _, key := range missingKeys {
		missing[key] = true
	}

	var baseFailed []string
	for addr, refs := range deps.Map {
		for _, ref := range refs {
			if missing[ref] {
				baseFailed = append(baseFailed, addr)
				break
			}
		}
	}

	removal := restrictToBatch(expandToDependents(deps, baseFailed), batch)
	if len(removal) == 0 {
		ctxlog.FromContext(ctx).Warn("No remaining change maps to the missing dependencies; dropping the entire batch.",
			"missing", missingKeys)
		return everything(batch)
	}
	return removal
}

// reduceObjectsDeploy handles per-object rejection: failed keys map back
// to nodes through the secondary index, then expand to dependents,
// restricted to the current batch. Keys matching nothing still in the
// batch fall back to dropping the entire batch.
func reduceObjectsDeploy(ctx context.Context, deps *Dependencies, batch []model.Change, failedKeys []string) map[string]bool {
	var baseFailed []string
	for _, key := range failedKeys {
		if node, ok := deps.Graph.FindByField(key); ok {
			baseFailed = append(baseFailed, node.Addr)
		}
	}

	removal := restrictToBatch(expandToDependents(deps, baseFailed), batch)
	if len(removal) == 0 {
		ctxlog.FromContext(ctx).Warn("No failed object key matches a change still in the batch; dropping the entire batch.",
			"failed_keys", failedKeys)
		return everything(batch)
	}
	return removal
}

// reduceSettingsDeploy handles per-configuration-type rejection. The
// returned removal set is empty when nothing in the batch matches a failed
// type; the loop treats that as "failure unrelated to remaining work" and
// stops without applying anything.
func reduceSettingsDeploy(deps *Dependencies, batch []model.Change, failedTypes []string) map[string]bool {
	failed := make(map[string]bool, len(failedTypes))
	for _, name := range failedTypes {
		failed[name] = true
	}

	var baseFailed []string
	for _, change := range batch {
		settings, ok := change.Desired.(*model.SettingsElement)
		if !ok || !failed[settings.ConfigType] {
			continue
		}
		baseFailed = append(baseFailed, change.RootAddr().String())
	}
	return expandToDependents(deps, baseFailed)
}

// allIncluded reports whether every missing feature is already present in
// the declared include list.
func allIncluded(missing, included []string) bool {
	have := make(map[string]bool, len(included))
	for _, name := range included {
		have[name] = true
	}
	for _, name := range missing {
		if !have[name] {
			return false
		}
	}
	return true
}

// featureDelta returns the feature ids whose desired state differs from
// the prior remote state, skipping the excluded ids. The deploy loop uses
// it after a partial features failure: an empty remaining delta means the
// feature toggle change is effectively applied.
func featureDelta(change model.Change, excluded []string) []string {
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	var before map[string]bool
	if prior, ok := change.Prior.(*model.FeaturesElement); ok {
		before = prior.Enabled
	}
	var after map[string]bool
	if desired, ok := change.Desired.(*model.FeaturesElement); ok {
		after = desired.Enabled
	}

	ids := make(map[string]bool, len(before)+len(after))
	for id := range before {
		ids[id] = true
	}
	for id := range after {
		ids[id] = true
	}

	var delta []string
	for id := range ids {
		if skip[id] {
			continue
		}
		bv, bok := before[id]
		av, aok := after[id]
		if bok != aok || bv != av {
			delta = append(delta, id)
		}
	}
	return delta
}
