package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/tenantgridgo/internal/blueprint"
	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/registry"
	"github.com/vk/tenantgridgo/internal/serializer"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	blueprint *model.Blueprint
	ser       *serializer.Serializer

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and
// registry, with the blueprint loaded and validated. A failure to load or
// validate is a fatal startup error and panics; cmd/cli recovers it into a
// clean exit.
//
// The fetch action is the one exception: it may target an empty directory
// that the fetch itself will populate, so a load failure there downgrades
// to a warning.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All family modules registered.", "families", reg.Families())

	app := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		ser:      serializer.New(),
	}

	bp, err := blueprint.Load(ctx, cfg.BlueprintPath)
	if err != nil {
		if cfg.Action == ActionFetch {
			logger.Warn("Blueprint not loadable yet; fetch will create it.", "error", err)
			return app
		}
		panic(fmt.Errorf("failed to load blueprint: %w", err))
	}

	if err := reg.ValidateBlueprint(ctx, bp); err != nil {
		panic(err)
	}
	logger.Debug("Blueprint passed startup validation.")

	app.blueprint = bp
	return app
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the application's configuration. This is primarily for
// testing.
func (a *App) Config() *Config {
	return a.config
}

// Blueprint returns the loaded blueprint, nil before a first fetch.
func (a *App) Blueprint() *model.Blueprint {
	return a.blueprint
}
