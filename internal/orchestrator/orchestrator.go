// Package orchestrator walks the scenario structure and drives the solve
// pipeline over it: subproblems fan out on a bounded worker pool, stages
// inside one subproblem run strictly in order on a single worker, and every
// terminal leaf feeds the scenario aggregate.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/pipeline"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

// Orchestrator runs scenarios. It owns the RunRegistry for the lifetime of
// one batch.
type Orchestrator struct {
	pipeline *pipeline.Pipeline
	runs     *RunRegistry
	workers  int
}

// New constructs an orchestrator with a bounded worker pool. Each in-flight
// leaf blocks one worker for the duration of its external solve, so the
// pool size should match available solver processes.
func New(p *pipeline.Pipeline, runs *RunRegistry, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{pipeline: p, runs: runs, workers: workers}
}

// Runs exposes the run registry for status polling.
func (o *Orchestrator) Runs() *RunRegistry { return o.runs }

// LeafFailureError reports that one or more leaves of a scenario failed
// while the run itself completed. Successful sibling results remain on
// disk.
type LeafFailureError struct {
	Scenario string
	Failed   int
}

// Error implements the error interface.
func (e *LeafFailureError) Error() string {
	return fmt.Sprintf("scenario %q: %d leaf run(s) failed", e.Scenario, e.Failed)
}

// subproblemResult is what one pool worker hands back per subproblem.
type subproblemResult struct {
	summaries []results.LeafSummary
	failed    int
	configErr error
}

// RunScenario derives the scenario's structure and solves every leaf.
// Returns nil when all leaves completed, a *LeafFailureError when some
// failed, or a *engine.ConfigurationError when the run aborted before any
// solve.
func (o *Orchestrator) RunScenario(ctx context.Context, sc *scenario.Scenario) error {
	logger := ctxlog.FromContext(ctx).With("scenario", sc.Name)

	structure, err := scenario.DeriveStructure(sc.Dir)
	if err != nil {
		return &engine.ConfigurationError{Detail: err.Error()}
	}

	runID := o.runs.Begin(sc.Name)
	o.runs.SetStatus(sc.Name, StatusRunning)
	logger.Info("Scenario run started.", "run_id", runID, "subproblems", len(structure.Subproblems))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	spChan := make(chan scenario.Subproblem, len(structure.Subproblems))
	for _, sp := range structure.Subproblems {
		spChan <- sp
	}
	close(spChan)

	workers := o.workers
	if workers > len(structure.Subproblems) {
		workers = len(structure.Subproblems)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allSums []results.LeafSummary
		failed  int
		cfgErr  error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for sp := range spChan {
				res := o.runSubproblem(runCtx, sc, sp)
				mu.Lock()
				allSums = append(allSums, res.summaries...)
				failed += res.failed
				if res.configErr != nil && cfgErr == nil {
					cfgErr = res.configErr
					// A configuration error poisons the whole run, not
					// just this subproblem.
					cancel()
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if cfgErr != nil {
		o.runs.SetStatus(sc.Name, StatusError)
		return cfgErr
	}

	agg := results.Aggregate(allSums)
	if err := results.WriteAggregate(sc.Dir, agg); err != nil {
		o.runs.SetStatus(sc.Name, StatusError)
		return fmt.Errorf("write aggregate for scenario %q: %w", sc.Name, err)
	}

	if failed > 0 {
		o.runs.SetStatus(sc.Name, StatusError)
		logger.Warn("Scenario finished with failed leaves.", "failed", failed)
		return &LeafFailureError{Scenario: sc.Name, Failed: failed}
	}

	o.runs.SetStatus(sc.Name, StatusComplete)
	logger.Info("Scenario run complete.")
	return nil
}

// runSubproblem solves one subproblem's stages strictly in order on the
// calling worker. The pass-through artifact written after stage N is the
// only state stage N+1 may read; breaking on the first failure guarantees
// no later stage ever sees a partial artifact.
func (o *Orchestrator) runSubproblem(ctx context.Context, sc *scenario.Scenario, sp scenario.Subproblem) subproblemResult {
	logger := ctxlog.FromContext(ctx).With("scenario", sc.Name, "subproblem", sp.Name)
	var res subproblemResult

	staged := len(sp.Stages) > 0
	var carry *scenario.PassThrough
	if staged {
		// Created empty before the first stage; presence of stages is the
		// sole condition for materializing an artifact.
		carry = scenario.NewPassThrough()
		if err := carry.WriteFile(scenario.PassThroughPath(sc.Dir, sp.Name)); err != nil {
			res.configErr = &engine.ConfigurationError{Detail: fmt.Sprintf("initialize pass-through for subproblem %q: %v", sp.Name, err)}
			return res
		}
	}

	leaves := sp.Leaves()
	for i, leaf := range leaves {
		if ctx.Err() != nil {
			// Canceled mid-subproblem: later stages must not run.
			logger.Warn("Subproblem canceled before leaf.", "leaf", leaf.String())
			o.runs.SetLeafStatus(sc.Name, leaf, StatusError)
			res.failed += len(leaves) - i
			return res
		}

		var prior *scenario.PassThrough
		if staged && i > 0 {
			pt, err := scenario.ReadPassThrough(scenario.PassThroughPath(sc.Dir, sp.Name), leaf)
			if err != nil {
				// Fatal to the remaining stages of this subproblem only.
				logger.Error("Pass-through unavailable.", "leaf", leaf.String(), "error", err)
				o.runs.SetLeafStatus(sc.Name, leaf, StatusError)
				res.failed += len(leaves) - i
				res.summaries = append(res.summaries, failedSummary(leaf, "pass_through_error"))
				return res
			}
			prior = pt
		}

		o.runs.SetLeafStatus(sc.Name, leaf, StatusRunning)
		out := o.runLeafWithCeiling(ctx, sc, leaf, prior)

		if out.Failed() {
			o.runs.SetLeafStatus(sc.Name, leaf, StatusError)
			var cfg *engine.ConfigurationError
			if errors.As(out.Err, &cfg) {
				res.configErr = cfg
				return res
			}
			res.failed += len(leaves) - i
			res.summaries = append(res.summaries, failedSummary(leaf, out.StatusLabel()))
			return res
		}

		if err := results.WriteLeaf(scenario.ResultDir(sc.Dir, leaf), out.Tables); err != nil {
			logger.Error("Failed to persist leaf results.", "leaf", leaf.String(), "error", err)
			o.runs.SetLeafStatus(sc.Name, leaf, StatusError)
			res.failed += len(leaves) - i
			res.summaries = append(res.summaries, failedSummary(leaf, "export_error"))
			return res
		}

		if staged {
			carry.Append(out.PassThrough...)
			if err := carry.WriteFile(scenario.PassThroughPath(sc.Dir, sp.Name)); err != nil {
				logger.Error("Failed to persist pass-through.", "leaf", leaf.String(), "error", err)
				o.runs.SetLeafStatus(sc.Name, leaf, StatusError)
				res.failed += len(leaves) - i
				res.summaries = append(res.summaries, failedSummary(leaf, "pass_through_error"))
				return res
			}
		}

		o.runs.SetLeafStatus(sc.Name, leaf, StatusComplete)
		res.summaries = append(res.summaries, results.LeafSummary{
			Subproblem:   leaf.Subproblem,
			Stage:        leaf.Stage,
			Status:       out.Status.String(),
			Objective:    out.Objective,
			SolveSeconds: out.SolveSeconds,
		})
	}
	return res
}

// runLeafWithCeiling applies the scenario's per-leaf wall-clock ceiling.
// The deadline cancels the solver subprocess; the adapter reports the
// outcome as timed_out, which stays distinct from infeasible.
func (o *Orchestrator) runLeafWithCeiling(ctx context.Context, sc *scenario.Scenario, leaf scenario.Leaf, prior *scenario.PassThrough) *pipeline.Outcome {
	if sc.LeafTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sc.LeafTimeoutSeconds)*time.Second)
		defer cancel()
	}
	return o.pipeline.RunLeaf(ctx, sc, leaf, prior)
}

// RunSingleLeaf runs one named leaf in debug mode, skipping siblings.
// A staged leaf consumes whatever pass-through artifact its subproblem has
// on disk from a previous run.
func (o *Orchestrator) RunSingleLeaf(ctx context.Context, sc *scenario.Scenario, leaf scenario.Leaf) error {
	structure, err := scenario.DeriveStructure(sc.Dir)
	if err != nil {
		return &engine.ConfigurationError{Detail: err.Error()}
	}
	sp, ok := structure.Find(leaf.Subproblem)
	if !ok {
		return &engine.ConfigurationError{Detail: fmt.Sprintf("scenario %q has no subproblem %q", sc.Name, leaf.Subproblem)}
	}
	stageIdx := -1
	if leaf.Stage == "" && len(sp.Stages) == 0 {
		stageIdx = 0
	}
	for i, st := range sp.Stages {
		if st == leaf.Stage {
			stageIdx = i
		}
	}
	if stageIdx < 0 {
		return &engine.ConfigurationError{Detail: fmt.Sprintf("subproblem %q has no stage %q", leaf.Subproblem, leaf.Stage)}
	}

	o.runs.Begin(sc.Name)
	o.runs.SetStatus(sc.Name, StatusRunning)

	var prior *scenario.PassThrough
	if stageIdx > 0 {
		pt, err := scenario.ReadPassThrough(scenario.PassThroughPath(sc.Dir, sp.Name), leaf)
		if err != nil {
			o.runs.SetStatus(sc.Name, StatusError)
			return err
		}
		prior = pt
	}

	out := o.runLeafWithCeiling(ctx, sc, leaf, prior)
	if out.Failed() {
		o.runs.SetStatus(sc.Name, StatusError)
		var cfg *engine.ConfigurationError
		if errors.As(out.Err, &cfg) {
			return cfg
		}
		return &LeafFailureError{Scenario: sc.Name, Failed: 1}
	}
	if err := results.WriteLeaf(scenario.ResultDir(sc.Dir, leaf), out.Tables); err != nil {
		o.runs.SetStatus(sc.Name, StatusError)
		return err
	}
	o.runs.SetStatus(sc.Name, StatusComplete)
	return nil
}

func failedSummary(leaf scenario.Leaf, status string) results.LeafSummary {
	return results.LeafSummary{Subproblem: leaf.Subproblem, Stage: leaf.Stage, Status: status}
}
