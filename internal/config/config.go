// Package config loads scenario manifests. A scenario directory carries one
// scenario.hcl naming the scenario, its feature flags, and its solver
// selection; everything else about the scenario is derived from the
// directory layout and input tables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

// ManifestName is the expected manifest file inside a scenario directory.
const ManifestName = "scenario.hcl"

type manifestHCL struct {
	Scenario *scenarioHCL `hcl:"scenario,block"`
}

type scenarioHCL struct {
	Name               string     `hcl:"name,label"`
	Features           []string   `hcl:"features,optional"`
	LeafTimeoutSeconds int        `hcl:"leaf_timeout_seconds,optional"`
	Solver             *solverHCL `hcl:"solver,block"`
}

type solverHCL struct {
	Name       string            `hcl:"name"`
	Executable string            `hcl:"executable,optional"`
	Options    map[string]string `hcl:"options,optional"`
}

// LoadScenario parses <dir>/scenario.hcl into a Scenario. Any parse or
// shape problem is a ConfigurationError: nothing has been solved yet and
// the whole run must stop.
func LoadScenario(ctx context.Context, dir string) (*scenario.Scenario, error) {
	logger := ctxlog.FromContext(ctx)
	path := filepath.Join(dir, ManifestName)

	if _, err := os.Stat(path); err != nil {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("scenario manifest %s: %v", path, err)}
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("parse %s: %s", path, diags.Error())}
	}

	var manifest manifestHCL
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("decode %s: %s", path, diags.Error())}
	}
	if manifest.Scenario == nil {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("%s declares no scenario block", path)}
	}
	if manifest.Scenario.Solver == nil {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("scenario %q declares no solver block", manifest.Scenario.Name)}
	}

	feats := make(scenario.Features)
	for _, f := range manifest.Scenario.Features {
		feats[f] = true
	}

	sc := &scenario.Scenario{
		Name:               manifest.Scenario.Name,
		Dir:                dir,
		Features:           feats,
		LeafTimeoutSeconds: manifest.Scenario.LeafTimeoutSeconds,
		Solver: scenario.SolverConfig{
			Name:       manifest.Scenario.Solver.Name,
			Executable: manifest.Scenario.Solver.Executable,
			Options:    manifest.Scenario.Solver.Options,
		},
	}

	logger.Debug("Scenario manifest loaded.",
		"scenario", sc.Name,
		"features", sc.Features.Sorted(),
		"solver", sc.Solver.Name,
	)
	return sc, nil
}
