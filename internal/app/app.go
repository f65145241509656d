package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
	elab     *generator.Elaborator
}

// NewApp is the constructor for the main application. Results are written
// to outW and logs to logW. Each App owns its logger, registry and
// generator cache. Without modules the core library is registered.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.Load(modules...)
	logger.Debug("All library modules registered.", "count", len(modules))

	// Validate the integrity of the registry.
	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error (conflicting library contents), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.",
		"externals", len(reg.ExternalRegistry),
		"generators", len(reg.GeneratorRegistry),
		"param_classes", len(reg.ParamClassRegistry),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
		elab:     generator.NewElaborator(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Elaborator returns the application's generator elaborator.
func (a *App) Elaborator() *generator.Elaborator {
	return a.elab
}
