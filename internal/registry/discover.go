package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

// KindHandler is an optional module interface: a module that models
// generators of particular operational kinds claims them here so discovery
// can verify input coverage.
type KindHandler interface {
	HandlesKind(kind string) bool
}

// Discover selects the ordered module list for one leaf from the
// scenario's feature flags and the operational kinds present in the leaf's
// input data. An unclaimed kind is a ConfigurationError raised before any
// program element is built or any solver invoked.
func (c *Catalog) Discover(ctx context.Context, sc *scenario.Scenario, in inputs.LeafReader) ([]engine.Module, error) {
	logger := ctxlog.FromContext(ctx)

	kinds, err := inputs.CollectKinds(in)
	if err != nil {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("collect input kinds: %v", err)}
	}

	var unclaimed []string
	for _, kind := range kinds.Sorted() {
		claimed := false
		for _, m := range c.modules {
			if kh, ok := m.(KindHandler); ok && kh.HandlesKind(kind) {
				claimed = true
				break
			}
		}
		if !claimed {
			unclaimed = append(unclaimed, kind)
		}
	}
	if len(unclaimed) > 0 {
		return nil, &engine.ConfigurationError{
			Detail: fmt.Sprintf("input data for scenario %q names operational kind(s) no registered module handles: %s",
				sc.Name, strings.Join(unclaimed, ", ")),
		}
	}

	var selected []engine.Module
	for _, m := range c.modules {
		if m.Applicable(sc.Features, kinds) {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return nil, &engine.ConfigurationError{Detail: fmt.Sprintf("no module is applicable to scenario %q", sc.Name)}
	}

	names := make([]string, len(selected))
	for i, m := range selected {
		names[i] = m.Name()
	}
	logger.Debug("Module discovery complete.", "scenario", sc.Name, "kinds", kinds.Sorted(), "modules", names)
	return selected, nil
}
