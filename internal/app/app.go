// Package app encapsulates the application's dependencies, configuration,
// and lifecycle: logger construction, module catalog population, and the
// entry points the CLI calls into.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/gridwerk/gridwerk/internal/config"
	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/orchestrator"
	"github.com/gridwerk/gridwerk/internal/pipeline"
	"github.com/gridwerk/gridwerk/internal/registry"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
)

// Config holds everything an App instance needs to run.
type Config struct {
	LogLevel  string
	LogFormat string

	// Workers bounds the pool of concurrently solving leaves; each
	// in-flight leaf holds one external solver process.
	Workers int

	// SolverExec, when set, overrides the executable every scenario
	// manifest names. Useful for pointing a whole batch at one install.
	SolverExec string

	// LeafTimeoutSeconds, when set, overrides the per-leaf wall-clock
	// ceiling of every scenario.
	LeafTimeoutSeconds int
}

// App wires the module catalog, the solver adapter, and the orchestrator.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     *Config
	catalog *registry.Catalog
	adapter solver.Adapter
}

// New constructs the application. Passing no modules installs the core
// module set; tests inject their own.
func New(outW io.Writer, cfg *Config, adapter solver.Adapter, modules ...engine.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	catalog := registry.NewCatalog()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, m := range modules {
		catalog.Register(m)
	}
	logger.Debug("Module catalog populated.", "count", catalog.Len(), "modules", catalog.Names())

	if adapter == nil {
		adapter = solver.NewExecAdapter()
	}

	return &App{outW: outW, logger: logger, cfg: cfg, catalog: catalog, adapter: adapter}
}

// Catalog exposes the module catalog, primarily for tests.
func (a *App) Catalog() *registry.Catalog { return a.catalog }

// Logger exposes the configured logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// newOrchestrator builds an orchestrator with a fresh run registry. One
// registry spans one run or batch and is torn down with it.
func (a *App) newOrchestrator() *orchestrator.Orchestrator {
	p := pipeline.New(a.catalog, a.adapter)
	return orchestrator.New(p, orchestrator.NewRunRegistry(), a.cfg.Workers)
}

// loadScenario reads a scenario manifest and applies CLI-level overrides.
func (a *App) loadScenario(ctx context.Context, dir string) (*scenario.Scenario, error) {
	sc, err := config.LoadScenario(ctx, dir)
	if err != nil {
		return nil, err
	}
	if a.cfg.SolverExec != "" {
		sc.Solver.Executable = a.cfg.SolverExec
	}
	if a.cfg.LeafTimeoutSeconds > 0 {
		sc.LeafTimeoutSeconds = a.cfg.LeafTimeoutSeconds
	}
	return sc, nil
}

// RunScenario runs one scenario end to end.
func (a *App) RunScenario(ctx context.Context, dir string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	sc, err := a.loadScenario(ctx, dir)
	if err != nil {
		return err
	}
	return a.newOrchestrator().RunScenario(ctx, sc)
}

// RunLeaf runs a single named leaf of a scenario in debug mode.
func (a *App) RunLeaf(ctx context.Context, dir, subproblem, stage string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	sc, err := a.loadScenario(ctx, dir)
	if err != nil {
		return err
	}
	leaf := scenario.Leaf{Subproblem: subproblem, Stage: stage}
	return a.newOrchestrator().RunSingleLeaf(ctx, sc, leaf)
}

// RunBatch runs every scenario in a YAML batch list across a pool of the
// given width. It returns the number of scenarios that failed.
func (a *App) RunBatch(ctx context.Context, listPath string, parallel int) (int, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	list, err := orchestrator.LoadBatchList(listPath)
	if err != nil {
		return 0, &engine.ConfigurationError{Detail: err.Error()}
	}
	orch := a.newOrchestrator()
	failed := orch.RunBatch(ctx, list.Scenarios, parallel, a.loadScenario)
	return failed, nil
}

// IsConfigurationError reports whether err is (or wraps) a configuration
// error, detected before any solve was attempted.
func IsConfigurationError(err error) bool {
	var cfg *engine.ConfigurationError
	return errors.As(err, &cfg)
}
