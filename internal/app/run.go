package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/deploy"
	"github.com/vk/tenantgridgo/internal/fetch"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/plan"
	"github.com/vk/tenantgridgo/internal/tenant"
)

// Run executes the configured action. It resolves tenant credentials,
// tags the context with a fresh run id, and dispatches to the deploy,
// fetch, plan, or validate pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "action", a.config.Action)

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	runID := uuid.NewString()
	ctx = ctxlog.WithRun(ctx, runID)
	logger := ctxlog.FromContext(ctx)

	if a.config.Action == ActionValidate {
		// NewApp already loaded and validated the blueprint; arriving
		// here means it passed.
		logger.Info("✅ Blueprint is valid.",
			"objects", len(a.blueprint.Objects), "settings", len(a.blueprint.Settings))
		fmt.Fprintln(a.outW, "blueprint is valid")
		return nil
	}

	creds, err := a.resolveCredentials()
	if err != nil {
		return err
	}
	client := tenant.NewClient(creds)

	switch a.config.Action {
	case ActionDeploy:
		return a.runDeploy(ctx, client, runID)
	case ActionFetch:
		return a.runFetch(ctx, client)
	case ActionPlan:
		_, err := a.runPlan(ctx, client)
		return err
	default:
		return fmt.Errorf("unknown action %q", a.config.Action)
	}
}

// resolveCredentials loads the optional env file and connection profile,
// then reads the tenant credentials from the environment.
func (a *App) resolveCredentials() (tenant.Credentials, error) {
	if a.config.EnvFile != "" {
		if err := tenant.LoadEnvFile(a.config.EnvFile); err != nil {
			return tenant.Credentials{}, err
		}
	}

	var profile *tenant.Profile
	if a.config.Profile != "" {
		p, err := tenant.LoadProfile(a.config.ProfilesPath, a.config.Profile)
		if err != nil {
			return tenant.Credentials{}, err
		}
		profile = p
	}

	return tenant.CredentialsFromEnv(profile)
}

// runPlan computes the drift between the blueprint and the live tenant and
// prints a human-readable summary.
func (a *App) runPlan(ctx context.Context, client *tenant.Client) ([]model.Change, error) {
	logger := ctxlog.FromContext(ctx)

	inv, err := plan.FetchInventory(ctx, client, a.usedFamilies(), a.usedConfigTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tenant inventory: %w", err)
	}

	changes, err := plan.Plan(ctx, a.blueprint, inv, a.ser)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		logger.Info("Tenant already matches the blueprint, nothing to do.")
		fmt.Fprintln(a.outW, "no changes")
		return nil, nil
	}

	additions, modifications := 0, 0
	for _, change := range changes {
		switch change.Kind {
		case model.Addition:
			additions++
			fmt.Fprintf(a.outW, "+ %s\n", change.Addr)
		case model.Modification:
			modifications++
			fmt.Fprintf(a.outW, "~ %s\n", change.Addr)
		}
	}
	fmt.Fprintf(a.outW, "plan: %d to add, %d to change\n", additions, modifications)
	logger.Info("Drift detected.", "additions", additions, "modifications", modifications)
	return changes, nil
}

// runDeploy plans the drift and pushes it through the deploy pipeline with
// failure recovery. A partial result is not an error: the run fails only
// when nothing at all could be applied.
func (a *App) runDeploy(ctx context.Context, client *tenant.Client, runID string) error {
	logger := ctxlog.FromContext(ctx)

	changes, err := a.runPlan(ctx, client)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	if a.config.Stream {
		stream, err := tenant.OpenProgressStream(ctx, client.Credentials(), runID)
		if err != nil {
			logger.Warn("Progress stream unavailable, continuing without it.", "error", err)
		} else {
			defer stream.Close()
		}
	}

	includeFeatures := a.registry.RequiredFeatures(a.blueprint)
	validateOnly := a.config.ValidateOnly
	if a.blueprint.Deploy != nil {
		includeFeatures = appendMissing(includeFeatures, a.blueprint.Deploy.IncludeFeatures)
		validateOnly = validateOnly || a.blueprint.Deploy.ValidateOnly
	}
	opts := &deploy.Options{
		Additional:   &deploy.AdditionalDependencies{Features: includeFeatures},
		ValidateOnly: validateOnly,
		RunID:        runID,
	}

	logger.Info("🚀 Starting deploy.", "changes", len(changes), "validate_only", opts.ValidateOnly)
	deployer := deploy.NewDeployer(client, a.ser)
	result, err := deployer.DeployGroup(ctx, "objects", changes, opts)
	if err != nil {
		return err
	}

	for _, deployErr := range result.Errors {
		logger.Warn("Deploy attempt failed.", "error", deployErr)
	}
	if len(result.Applied) == 0 {
		logger.Error("Deploy aborted, no changes were applied.", "attempts", len(result.Errors))
		return fmt.Errorf("deploy failed after %d attempt(s): %w", len(result.Errors), result.Errors[len(result.Errors)-1])
	}

	logger.Info("🏁 Deploy finished.", "applied", len(result.Applied), "skipped", len(changes)-len(result.Applied))
	fmt.Fprintf(a.outW, "deploy: %d applied, %d skipped\n", len(result.Applied), len(changes)-len(result.Applied))
	return nil
}

// runFetch imports the live tenant configuration and writes it back as
// blueprint files.
func (a *App) runFetch(ctx context.Context, client *tenant.Client) error {
	logger := ctxlog.FromContext(ctx)

	families := a.usedFamilies()
	configTypes := a.usedConfigTypes()

	logger.Info("📥 Fetching tenant configuration.",
		"families", families, "workers", a.config.WorkerCount)
	fetcher := fetch.New(client, a.config.WorkerCount)
	if err := fetcher.Fetch(ctx, families, configTypes, a.config.BlueprintPath); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	logger.Info("🏁 Fetch finished.", "directory", a.config.BlueprintPath)
	fmt.Fprintf(a.outW, "fetched tenant configuration into %s\n", a.config.BlueprintPath)
	return nil
}

// usedFamilies returns the workspace's family scope, falling back to every
// registered family when no blueprint is loaded or the workspace block is
// absent.
func (a *App) usedFamilies() []string {
	if a.blueprint != nil && a.blueprint.Workspace != nil && len(a.blueprint.Workspace.Families) > 0 {
		return a.blueprint.Workspace.Families
	}
	return a.registry.Families()
}

// usedConfigTypes returns the settings types named by the blueprint, or
// every registered type when fetching without one.
func (a *App) usedConfigTypes() []string {
	if a.blueprint == nil {
		return a.registry.SettingsTypes()
	}
	types := make([]string, 0, len(a.blueprint.Settings))
	for _, settings := range a.blueprint.Settings {
		types = append(types, settings.ConfigType)
	}
	return types
}

// appendMissing returns base with any entries of extra that are not
// already present appended, preserving order.
func appendMissing(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, item := range base {
		seen[item] = true
	}
	out := append([]string(nil), base...)
	for _, item := range extra {
		if !seen[item] {
			out = append(out, item)
			seen[item] = true
		}
	}
	return out
}
