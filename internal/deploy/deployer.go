package deploy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/vk/tenantgridgo/internal/tenant"
)

// BundleSubmitter is the slice of the tenant client the deployer needs.
type BundleSubmitter interface {
	SubmitBundle(ctx context.Context, bundle *tenant.Bundle, opts tenant.SubmitOptions) error
}

// AdditionalDependencies is deploy configuration shared across submission
// attempts within one invocation. The loop appends to Features in place
// when the tenant reports missing features, so the very next attempt sees
// the corrected list.
type AdditionalDependencies struct {
	// Features is the bundle manifest's declared feature include list.
	Features []string
}

// Options tunes one deploy group invocation.
type Options struct {
	// Additional carries the mutable feature include list. Never nil after
	// normalization in DeployGroup.
	Additional *AdditionalDependencies
	// ValidateOnly asks the tenant to validate without applying.
	ValidateOnly bool
	// RunID correlates submissions with logs and the progress stream.
	RunID string
}

// Result is what one deploy group invocation produced: the full history of
// rejected attempts and the changes that finally applied. Changes that were
// silently dropped during reduction appear in neither list; callers can
// compute them as original minus applied minus explicitly errored.
type Result struct {
	// Errors accumulates one error per failed attempt. Entries are never
	// removed, with one pinned exception: a missing-features error that
	// the loop corrected by widening the include list is discarded, since
	// it stops being a real failure the moment the manifest is fixed.
	Errors []error
	// Applied holds the changes the tenant accepted, set once at loop exit.
	Applied []model.Change
}

// loop states, used only for logging.
const (
	stateSubmitting = "submitting"
	stateReducing   = "reducing_after_failure"
	stateSucceeded  = "succeeded"
	stateAborted    = "aborted"
)

// Deployer runs deploy groups against one tenant.
type Deployer struct {
	client BundleSubmitter
	ser    *serializer.Serializer
}

// NewDeployer creates a Deployer submitting through client and serializing
// through ser.
func NewDeployer(client BundleSubmitter, ser *serializer.Serializer) *Deployer {
	return &Deployer{client: client, ser: ser}
}

// DeployGroup submits one group of changes as an atomic bundle, recovering
// from classified rejections by dependency-graph reduction until the batch
// is accepted or exhausted.
//
// The returned error is reserved for failures of the pipeline itself
// (serialization, bundle assembly); a rejected or partially rejected
// deploy is a normal outcome reported through the Result.
func (d *Deployer) DeployGroup(ctx context.Context, groupID string, changes []model.Change, opts *Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("group", groupID)
	ctx = ctxlog.WithLogger(ctx, logger)

	if opts == nil {
		opts = &Options{}
	}
	if opts.Additional == nil {
		opts.Additional = &AdditionalDependencies{}
	}

	result := &Result{}
	if len(changes) == 0 {
		logger.Debug("Deploy group is empty, nothing to submit.")
		return result, nil
	}

	// Built once from the original full batch; read-only afterwards.
	deps, err := BuildDependencies(ctx, changes, d.ser)
	if err != nil {
		return nil, err
	}

	batch := make([]model.Change, len(changes))
	copy(batch, changes)

	attempt := 0
	for len(batch) > 0 {
		attempt++
		logger.Debug("Deploy loop iteration.", "state", stateSubmitting, "attempt", attempt, "batch_size", len(batch))

		bundle, err := d.buildBundle(batch, deps, opts)
		if err != nil {
			return nil, err
		}

		submitErr := d.client.SubmitBundle(ctx, bundle, tenant.SubmitOptions{
			ValidateOnly: opts.ValidateOnly,
			RunID:        opts.RunID,
		})
		if submitErr == nil {
			logger.Info("✅ Deploy group accepted.", "state", stateSucceeded, "attempt", attempt, "applied", len(batch))
			result.Applied = batch
			return result, nil
		}

		result.Errors = append(result.Errors, submitErr)
		failure, classified := tenant.Classify(submitErr)
		if !classified {
			logger.Error("Unclassified submission error, aborting deploy group.", "state", stateAborted, "error", submitErr)
			return result, nil
		}

		logger.Debug("Deploy loop iteration.", "state", stateReducing, "kind", failure.FailureKind(), "error", submitErr)

		switch f := failure.(type) {
		case *tenant.ManifestValidationError:
			removal := reduceManifestValidation(ctx, deps, batch, f.MissingDependencyKeys)
			batch = removeFromBatch(batch, removal)

		case *tenant.MissingFeaturesError:
			if len(f.MissingFeatures) == 0 || allIncluded(f.MissingFeatures, opts.Additional.Features) {
				// Nothing left to correct: the include list already covers
				// every reported feature, so retrying cannot help. The
				// triggering error stays in the history.
				logger.Warn("Required features cannot be satisfied, aborting deploy group.",
					"state", stateAborted, "missing", f.MissingFeatures)
				return result, nil
			}
			opts.Additional.Features = appendMissing(opts.Additional.Features, f.MissingFeatures)
			// The corrected manifest makes this a non-failure; drop it
			// from the history and retry the same batch.
			result.Errors = result.Errors[:len(result.Errors)-1]
			logger.Info("Widened manifest feature include list, retrying.", "features", opts.Additional.Features)

		case *tenant.FeaturesDeployError:
			// Terminal partial success: everything applied except some
			// entries of the feature toggle change.
			result.Applied = applyWithExcludedFeatures(batch, f.ExcludedFeatureIDs)
			logger.Info("✅ Deploy group accepted with excluded features.",
				"state", stateSucceeded, "excluded", f.ExcludedFeatureIDs, "applied", len(result.Applied))
			return result, nil

		case *tenant.ObjectsDeployError:
			removal := reduceObjectsDeploy(ctx, deps, batch, f.FailedObjectKeys)
			batch = removeFromBatch(batch, removal)

		case *tenant.SettingsDeployError:
			removal := reduceSettingsDeploy(deps, batch, f.FailedConfigTypes)
			if len(removal) == 0 {
				// The failure concerns nothing we are still carrying;
				// stop without applying anything, not an error state.
				logger.Warn("Settings failure is unrelated to the remaining batch, stopping.",
					"state", stateAborted, "failed_types", f.FailedConfigTypes)
				return result, nil
			}
			batch = removeFromBatch(batch, removal)
		}
	}

	logger.Warn("Deploy group exhausted, nothing applied.", "state", stateAborted, "attempts", attempt)
	return result, nil
}

// buildBundle assembles the submission bundle for the current batch from
// the cached node summaries.
func (d *Deployer) buildBundle(batch []model.Change, deps *Dependencies, opts *Options) (*tenant.Bundle, error) {
	bundle := &tenant.Bundle{
		Manifest: tenant.Manifest{IncludeFeatures: opts.Additional.Features},
	}

	seen := make(map[string]bool)
	for _, change := range batch {
		root := change.RootAddr().String()
		if seen[root] {
			continue
		}
		seen[root] = true

		node, ok := deps.Graph.FindByKey(root)
		if !ok {
			return nil, fmt.Errorf("batch change %s has no dependency node", root)
		}

		for _, doc := range node.Documents {
			raw := json.RawMessage(doc.Body)
			if node.Key != "" {
				bundle.Objects = append(bundle.Objects, raw)
			} else {
				bundle.Settings = append(bundle.Settings, raw)
			}
		}
		if node.Key != "" {
			bundle.Manifest.ObjectKeys = append(bundle.Manifest.ObjectKeys, node.Key)
		}
	}
	return bundle, nil
}

// applyWithExcludedFeatures computes the applied set for the terminal
// partial-success case: every non-features change applied; the feature
// toggle change counts as applied only when its remaining delta, ignoring
// the excluded ids, is empty.
func applyWithExcludedFeatures(batch []model.Change, excluded []string) []model.Change {
	applied := make([]model.Change, 0, len(batch))
	for _, change := range batch {
		if _, isFeatures := change.Desired.(*model.FeaturesElement); !isFeatures {
			applied = append(applied, change)
			continue
		}
		if len(featureDelta(change, excluded)) == 0 {
			applied = append(applied, change)
		}
	}
	return applied
}

// appendMissing appends the names not already present, preserving order.
func appendMissing(have, add []string) []string {
	present := make(map[string]bool, len(have))
	for _, name := range have {
		present[name] = true
	}
	for _, name := range add {
		if !present[name] {
			have = append(have, name)
			present[name] = true
		}
	}
	return have
}
