package tenant

import "encoding/json"

// Manifest declares what a bundle needs from the tenant before any of its
// documents are considered: required account features and the keys of every
// object the bundle creates or updates.
type Manifest struct {
	// IncludeFeatures lists account features the bundle depends on. The
	// tenant rejects the whole bundle with a MissingFeaturesError when a
	// document needs a feature absent from this list.
	IncludeFeatures []string `json:"include_features"`
	// ObjectKeys lists every object key the bundle carries.
	ObjectKeys []string `json:"object_keys"`
}

// Bundle is one atomic submission unit. The tenant validates and applies a
// bundle as a whole; a rejection never leaves partial state behind (the one
// exception being the feature toggle partial success, reported as a
// FeaturesDeployError).
type Bundle struct {
	Manifest Manifest `json:"manifest"`
	// Objects holds the serialized object documents.
	Objects []json.RawMessage `json:"objects"`
	// Settings holds the serialized settings documents, and the features
	// document when the bundle toggles features.
	Settings []json.RawMessage `json:"settings"`
}

// SubmitOptions tunes one bundle submission.
type SubmitOptions struct {
	// ValidateOnly asks the tenant to run full validation without applying.
	ValidateOnly bool
	// RunID correlates the submission with logs and the progress stream.
	RunID string
}
