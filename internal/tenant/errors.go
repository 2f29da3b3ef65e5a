package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FailureKind discriminates the closed set of classified submission
// failures.
type FailureKind string

const (
	KindManifestValidation FailureKind = "manifest_validation"
	KindMissingFeatures    FailureKind = "missing_features"
	KindFeaturesDeploy     FailureKind = "features_deploy"
	KindObjectsDeploy      FailureKind = "objects_deploy"
	KindSettingsDeploy     FailureKind = "settings_deploy"
)

// Failure is a classified bundle submission failure. The concrete type
// behind it carries the data needed to identify the affected objects.
type Failure interface {
	error
	// FailureKind returns the discriminator for this failure.
	FailureKind() FailureKind
}

// ManifestValidationError reports that the bundle manifest references
// dependencies the tenant could not resolve.
type ManifestValidationError struct {
	// MissingDependencyKeys lists the object keys the tenant could not find.
	MissingDependencyKeys []string `json:"missing_dependencies"`
}

func (e *ManifestValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed: missing dependencies [%s]",
		strings.Join(e.MissingDependencyKeys, ", "))
}

// FailureKind implements Failure.
func (e *ManifestValidationError) FailureKind() FailureKind { return KindManifestValidation }

// MissingFeaturesError reports that the bundle manifest requires account
// features that are absent from its declared feature include list.
type MissingFeaturesError struct {
	// MissingFeatures lists the feature names the manifest must include.
	MissingFeatures []string `json:"missing_features"`
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("bundle manifest is missing required features [%s]",
		strings.Join(e.MissingFeatures, ", "))
}

// FailureKind implements Failure.
func (e *MissingFeaturesError) FailureKind() FailureKind { return KindMissingFeatures }

// FeaturesDeployError reports a partial success: the bundle applied except
// for some entries of the feature toggle change, which the tenant excluded.
type FeaturesDeployError struct {
	// ExcludedFeatureIDs lists the feature ids the tenant refused to toggle.
	ExcludedFeatureIDs []string `json:"excluded_features"`
}

func (e *FeaturesDeployError) Error() string {
	return fmt.Sprintf("features deploy excluded [%s]", strings.Join(e.ExcludedFeatureIDs, ", "))
}

// FailureKind implements Failure.
func (e *FeaturesDeployError) FailureKind() FailureKind { return KindFeaturesDeploy }

// ObjectsDeployError reports that specific objects in the bundle failed to
// apply. Objects are identified by key, not address; the deploy pipeline
// maps them back through its secondary index.
type ObjectsDeployError struct {
	// FailedObjectKeys lists the keys of the rejected objects.
	FailedObjectKeys []string `json:"failed_objects"`
}

func (e *ObjectsDeployError) Error() string {
	return fmt.Sprintf("objects deploy failed for [%s]", strings.Join(e.FailedObjectKeys, ", "))
}

// FailureKind implements Failure.
func (e *ObjectsDeployError) FailureKind() FailureKind { return KindObjectsDeploy }

// SettingsDeployError reports that specific settings documents failed to
// apply, identified by configuration type name.
type SettingsDeployError struct {
	// FailedConfigTypes lists the rejected configuration type names.
	FailedConfigTypes []string `json:"failed_types"`
}

func (e *SettingsDeployError) Error() string {
	return fmt.Sprintf("settings deploy failed for [%s]", strings.Join(e.FailedConfigTypes, ", "))
}

// FailureKind implements Failure.
func (e *SettingsDeployError) FailureKind() FailureKind { return KindSettingsDeploy }

// Classify extracts the typed failure from an error chain. It returns
// false for anything outside the closed taxonomy; such errors are always
// fatal to the remaining batch.
func Classify(err error) (Failure, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// failureEnvelope is the JSON body of a classified rejection response.
type failureEnvelope struct {
	Kind FailureKind `json:"kind"`
}

// decodeFailure parses a rejection body into its typed failure. Unknown or
// malformed bodies yield an error, which the caller surfaces unclassified.
func decodeFailure(body []byte) (Failure, error) {
	var env failureEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("undecodable rejection body: %w", err)
	}

	var f Failure
	switch env.Kind {
	case KindManifestValidation:
		f = &ManifestValidationError{}
	case KindMissingFeatures:
		f = &MissingFeaturesError{}
	case KindFeaturesDeploy:
		f = &FeaturesDeployError{}
	case KindObjectsDeploy:
		f = &ObjectsDeployError{}
	case KindSettingsDeploy:
		f = &SettingsDeployError{}
	default:
		return nil, fmt.Errorf("unknown rejection kind %q", env.Kind)
	}

	if err := json.Unmarshal(body, f); err != nil {
		return nil, fmt.Errorf("decoding %s rejection: %w", env.Kind, err)
	}
	return f, nil
}
