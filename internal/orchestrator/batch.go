package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

// BatchList is the parsed batch file: scenario directories to run.
type BatchList struct {
	Scenarios []string `yaml:"scenarios"`
}

// LoadBatchList reads a YAML batch file.
func LoadBatchList(path string) (*BatchList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch list: %w", err)
	}
	var list BatchList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse batch list %s: %w", path, err)
	}
	if len(list.Scenarios) == 0 {
		return nil, fmt.Errorf("batch list %s names no scenarios", path)
	}
	return &list, nil
}

// ScenarioLoader resolves a scenario directory into a loaded scenario. The
// orchestrator takes it as a dependency so batch runs do not couple it to
// the manifest format.
type ScenarioLoader func(ctx context.Context, dir string) (*scenario.Scenario, error)

// RunBatch runs a list of independent scenarios across a fixed-size pool.
// Scenarios share no state at all; one scenario failing, for any reason,
// never disturbs the others. Returns the number of scenarios that did not
// complete.
func (o *Orchestrator) RunBatch(ctx context.Context, dirs []string, parallel int, load ScenarioLoader) int {
	logger := ctxlog.FromContext(ctx)
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(dirs) {
		parallel = len(dirs)
	}
	logger.Info("Batch run started.", "scenarios", len(dirs), "parallel", parallel)

	dirChan := make(chan string, len(dirs))
	for _, d := range dirs {
		dirChan <- d
	}
	close(dirChan)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range dirChan {
				if err := o.runBatchScenario(ctx, dir, load); err != nil {
					logger.Error("Batch scenario failed.", "dir", dir, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	logger.Info("Batch run finished.", "scenarios", len(dirs), "failed", failed)
	return failed
}

func (o *Orchestrator) runBatchScenario(ctx context.Context, dir string, load ScenarioLoader) error {
	sc, err := load(ctx, dir)
	if err != nil {
		return err
	}
	return o.RunScenario(ctx, sc)
}
