package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/vk/tenantgridgo/internal/tenant"
)

// scriptedSubmitter returns its scripted responses in order and records
// every submitted bundle. Submissions beyond the script succeed.
type scriptedSubmitter struct {
	responses []error
	bundles   []*tenant.Bundle
	options   []tenant.SubmitOptions
}

func (s *scriptedSubmitter) SubmitBundle(ctx context.Context, bundle *tenant.Bundle, opts tenant.SubmitOptions) error {
	s.bundles = append(s.bundles, bundle)
	s.options = append(s.options, opts)
	if len(s.bundles) <= len(s.responses) {
		return s.responses[len(s.bundles)-1]
	}
	return nil
}

func deployGroup(t *testing.T, submitter *scriptedSubmitter, changes []model.Change, opts *Options) *Result {
	t.Helper()
	d := NewDeployer(submitter, serializer.New())
	result, err := d.DeployGroup(context.Background(), "objects", changes, opts)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func appliedAddrs(result *Result) []string {
	var addrs []string
	for _, change := range result.Applied {
		addrs = append(addrs, change.Addr.String())
	}
	return addrs
}

func TestDeployGroup_HappyPath(t *testing.T) {
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]")
	submitter := &scriptedSubmitter{}

	result := deployGroup(t, submitter, []model.Change{a, b}, nil)

	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"object.script.a", "object.script.b"}, appliedAddrs(result))
	require.Len(t, submitter.bundles, 1)
	assert.Equal(t, []string{"custscript_a", "custscript_b"}, submitter.bundles[0].Manifest.ObjectKeys)
}

func TestDeployGroup_EmptyBatch(t *testing.T) {
	submitter := &scriptedSubmitter{}
	result := deployGroup(t, submitter, nil, nil)

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Applied)
	assert.Empty(t, submitter.bundles)
}

func TestDeployGroup_ObjectsFailureRemovesDependents(t *testing.T) {
	// A(addition, custscript_a), B(addition, refs A): the graph has edge
	// A -> B. A's failure must take B down with it.
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]")
	submitter := &scriptedSubmitter{responses: []error{
		&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
	}}

	result := deployGroup(t, submitter, []model.Change{a, b}, nil)

	assert.Empty(t, result.Applied)
	require.Len(t, result.Errors, 1)
	assert.Len(t, submitter.bundles, 1, "batch emptied, no resubmission")
}

func TestDeployGroup_ObjectsFailureKeepsUnrelated(t *testing.T) {
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]")
	c := objectChange("c", "custscript_c", model.Addition, "independent")
	submitter := &scriptedSubmitter{responses: []error{
		&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
	}}

	result := deployGroup(t, submitter, []model.Change{a, b, c}, nil)

	assert.Equal(t, []string{"object.script.c"}, appliedAddrs(result))
	require.Len(t, result.Errors, 1)
	require.Len(t, submitter.bundles, 2)
	assert.Equal(t, []string{"custscript_c"}, submitter.bundles[1].Manifest.ObjectKeys)
}

func TestDeployGroup_ObjectsFailureFailSafe(t *testing.T) {
	// The failed key matches no known node: the whole batch goes.
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	submitter := &scriptedSubmitter{responses: []error{
		&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_ghost"}},
	}}

	result := deployGroup(t, submitter, []model.Change{a}, nil)

	assert.Empty(t, result.Applied)
	require.Len(t, result.Errors, 1)
	assert.Len(t, submitter.bundles, 1)
}

func TestDeployGroup_ManifestValidation(t *testing.T) {
	t.Run("referencing change and dependents removed", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		b := objectChange("b", "custscript_b", model.Addition, "needs [ref=custscript_x]")
		c := objectChange("c", "custscript_c", model.Addition, "calls [ref=custscript_b]")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ManifestValidationError{MissingDependencyKeys: []string{"custscript_x"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, b, c}, nil)

		assert.Equal(t, []string{"object.script.a"}, appliedAddrs(result))
		require.Len(t, result.Errors, 1)
		require.Len(t, submitter.bundles, 2)
	})

	t.Run("no change references the missing id: fail-safe drops everything", func(t *testing.T) {
		c := objectChange("c", "custscript_c", model.Addition, "plain")
		wanted := &tenant.ManifestValidationError{MissingDependencyKeys: []string{"x"}}
		submitter := &scriptedSubmitter{responses: []error{wanted}}

		result := deployGroup(t, submitter, []model.Change{c}, nil)

		assert.Empty(t, result.Applied)
		require.Len(t, result.Errors, 1)
		assert.ErrorIs(t, result.Errors[0], error(wanted))
		assert.Len(t, submitter.bundles, 1)
	})
}

func TestDeployGroup_MissingFeatures(t *testing.T) {
	t.Run("retry with widened include list discards the error", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		opts := &Options{Additional: &AdditionalDependencies{}}
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.MissingFeaturesError{MissingFeatures: []string{"multicurrency"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a}, opts)

		assert.Equal(t, []string{"object.script.a"}, appliedAddrs(result))
		assert.Empty(t, result.Errors, "the corrected error is not a real failure")
		assert.Equal(t, []string{"multicurrency"}, opts.Additional.Features)
		require.Len(t, submitter.bundles, 2)
		assert.Empty(t, submitter.bundles[0].Manifest.IncludeFeatures)
		assert.Equal(t, []string{"multicurrency"}, submitter.bundles[1].Manifest.IncludeFeatures)
	})

	t.Run("already included features abort with the error retained", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		opts := &Options{Additional: &AdditionalDependencies{Features: []string{"multicurrency"}}}
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.MissingFeaturesError{MissingFeatures: []string{"multicurrency"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a}, opts)

		assert.Empty(t, result.Applied)
		require.Len(t, result.Errors, 1)
		assert.Len(t, submitter.bundles, 1)
		assert.Equal(t, []string{"multicurrency"}, opts.Additional.Features, "include list unchanged")
	})

	t.Run("empty missing list aborts", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.MissingFeaturesError{},
		}}

		result := deployGroup(t, submitter, []model.Change{a}, nil)

		assert.Empty(t, result.Applied)
		assert.Len(t, result.Errors, 1)
		assert.Len(t, submitter.bundles, 1)
	})
}

func TestDeployGroup_FeaturesPartialSuccess(t *testing.T) {
	t.Run("empty remaining delta counts the change as applied", func(t *testing.T) {
		// Before {a,b}, after {a}, excluded {b}: nothing left to toggle.
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		f := featuresChange(
			map[string]bool{"feat_a": true, "feat_b": true},
			map[string]bool{"feat_a": true, "feat_b": false},
		)
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.FeaturesDeployError{ExcludedFeatureIDs: []string{"feat_b"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, f}, nil)

		assert.ElementsMatch(t, []string{"object.script.a", "features"}, appliedAddrs(result))
		assert.Len(t, result.Errors, 1)
		assert.Len(t, submitter.bundles, 1, "terminal: no resubmission")
	})

	t.Run("remaining delta keeps the features change out of applied", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		f := featuresChange(
			map[string]bool{"feat_a": false, "feat_b": true},
			map[string]bool{"feat_a": true, "feat_b": false},
		)
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.FeaturesDeployError{ExcludedFeatureIDs: []string{"feat_b"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, f}, nil)

		assert.Equal(t, []string{"object.script.a"}, appliedAddrs(result))
		assert.Len(t, submitter.bundles, 1)
	})
}

func TestDeployGroup_SettingsFailure(t *testing.T) {
	t.Run("matching settings change removed, rest applied", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		s := settingsChange("accounting_prefs")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.SettingsDeployError{FailedConfigTypes: []string{"accounting_prefs"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, s}, nil)

		assert.Equal(t, []string{"object.script.a"}, appliedAddrs(result))
		assert.Len(t, result.Errors, 1)
		require.Len(t, submitter.bundles, 2)
	})

	t.Run("unrelated settings failure stops with nothing applied", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.SettingsDeployError{FailedConfigTypes: []string{"payroll_prefs"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a}, nil)

		assert.Empty(t, result.Applied)
		assert.Len(t, result.Errors, 1)
		assert.Len(t, submitter.bundles, 1)
	})
}

func TestDeployGroup_StaleFailureReports(t *testing.T) {
	// When a tenant keeps reporting objects that earlier iterations already
	// dropped, the report maps to nothing still in the batch. The fail-safe
	// must fire rather than resubmitting the identical bundle forever.

	t.Run("manifest validation naming only dropped changes drops the rest", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "needs [ref=custscript_missing]")
		b := objectChange("b", "custscript_b", model.Addition, "plain")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
			&tenant.ManifestValidationError{MissingDependencyKeys: []string{"custscript_missing"}},
			&tenant.ManifestValidationError{MissingDependencyKeys: []string{"custscript_missing"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, b}, nil)

		assert.Empty(t, result.Applied)
		assert.Len(t, result.Errors, 2)
		require.Len(t, submitter.bundles, 2, "attempts bounded by batch size")
		assert.Equal(t, []string{"custscript_b"}, submitter.bundles[1].Manifest.ObjectKeys)
	})

	t.Run("objects failure naming only dropped changes drops the rest", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		b := objectChange("b", "custscript_b", model.Addition, "plain")
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
		}}

		result := deployGroup(t, submitter, []model.Change{a, b}, nil)

		assert.Empty(t, result.Applied)
		assert.Len(t, result.Errors, 2)
		require.Len(t, submitter.bundles, 2, "attempts bounded by batch size")
	})
}

func TestDeployGroup_UnclassifiedAborts(t *testing.T) {
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	boom := errors.New("connection reset by peer")
	submitter := &scriptedSubmitter{responses: []error{boom}}

	result := deployGroup(t, submitter, []model.Change{a}, nil)

	assert.Empty(t, result.Applied)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], boom)
	assert.Len(t, submitter.bundles, 1)
}

func TestDeployGroup_Properties(t *testing.T) {
	t.Run("applied is a subset of the original batch", func(t *testing.T) {
		changes := []model.Change{
			objectChange("a", "custscript_a", model.Addition, "plain"),
			objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]"),
			objectChange("c", "custscript_c", model.Modification, "plain"),
		}
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_b"}},
		}}

		result := deployGroup(t, submitter, changes, nil)

		original := make(map[string]bool)
		for _, change := range changes {
			original[change.Addr.String()] = true
		}
		for _, change := range result.Applied {
			assert.True(t, original[change.Addr.String()], "applied change %s was never planned", change.Addr)
		}
	})

	t.Run("batch shrinks every iteration, attempts bounded by batch size", func(t *testing.T) {
		changes := []model.Change{
			objectChange("a", "custscript_a", model.Addition, "plain"),
			objectChange("b", "custscript_b", model.Addition, "plain"),
			objectChange("c", "custscript_c", model.Addition, "plain"),
		}
		// Fail exactly one independent object per attempt.
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_b"}},
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_c"}},
		}}

		result := deployGroup(t, submitter, changes, nil)

		assert.Empty(t, result.Applied)
		assert.Len(t, result.Errors, 3)
		require.Len(t, submitter.bundles, 3)
		for i := 1; i < len(submitter.bundles); i++ {
			assert.Less(t,
				len(submitter.bundles[i].Manifest.ObjectKeys),
				len(submitter.bundles[i-1].Manifest.ObjectKeys),
				"batch must strictly shrink")
		}
	})

	t.Run("a dropped change never reappears", func(t *testing.T) {
		changes := []model.Change{
			objectChange("a", "custscript_a", model.Addition, "plain"),
			objectChange("b", "custscript_b", model.Addition, "plain"),
		}
		submitter := &scriptedSubmitter{responses: []error{
			&tenant.ObjectsDeployError{FailedObjectKeys: []string{"custscript_a"}},
		}}

		deployGroup(t, submitter, changes, nil)

		require.Len(t, submitter.bundles, 2)
		assert.NotContains(t, submitter.bundles[1].Manifest.ObjectKeys, "custscript_a")
	})

	t.Run("options propagate to the submission", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		submitter := &scriptedSubmitter{}

		deployGroup(t, submitter, []model.Change{a}, &Options{
			Additional:   &AdditionalDependencies{Features: []string{"multicurrency"}},
			ValidateOnly: true,
			RunID:        "run-42",
		})

		require.Len(t, submitter.options, 1)
		assert.True(t, submitter.options[0].ValidateOnly)
		assert.Equal(t, "run-42", submitter.options[0].RunID)
		assert.Equal(t, []string{"multicurrency"}, submitter.bundles[0].Manifest.IncludeFeatures)
	})
}

func TestFeatureDelta(t *testing.T) {
	change := featuresChange(
		map[string]bool{"a": true, "b": false, "c": true},
		map[string]bool{"a": true, "b": true, "c": false},
	)

	assert.ElementsMatch(t, []string{"b", "c"}, featureDelta(change, nil))
	assert.ElementsMatch(t, []string{"c"}, featureDelta(change, []string{"b"}))
	assert.Empty(t, featureDelta(change, []string{"b", "c"}))
}
