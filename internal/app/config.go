package app

import (
	"errors"
	"fmt"
)

// Actions the CLI can dispatch.
const (
	ActionDeploy   = "deploy"
	ActionFetch    = "fetch"
	ActionPlan     = "plan"
	ActionValidate = "validate"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BlueprintPath string // hcl files: a directory or a single file
	Action        string

	Profile      string // named connection profile in ProfilesPath
	ProfilesPath string
	EnvFile      string // optional .env file with credentials

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int // fetch import pool size

	ValidateOnly bool // deploy validates without applying
	Stream       bool // subscribe to the live deploy progress stream
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BlueprintPath == "" {
		return nil, errors.New("BlueprintPath is a required configuration field and cannot be empty")
	}

	switch cfg.Action {
	case ActionDeploy, ActionFetch, ActionPlan, ActionValidate:
	case "":
		cfg.Action = ActionPlan
	default:
		return nil, fmt.Errorf("unknown action %q", cfg.Action)
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 4
	}
	if cfg.Profile != "" && cfg.ProfilesPath == "" {
		cfg.ProfilesPath = "profiles.yaml"
	}

	return &cfg, nil
}
