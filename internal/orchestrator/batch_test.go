package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/config"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/testutil"
	"github.com/gridwerk/gridwerk/modules/balance"
)

func TestLoadBatchList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  - /data/week1\n  - /data/week2\n"), 0o644))

	list, err := LoadBatchList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"/data/week1", "/data/week2"}, list.Scenarios)
}

func TestLoadBatchList_Errors(t *testing.T) {
	_, err := LoadBatchList(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("scenarios: []\n"), 0o644))
	_, err = LoadBatchList(empty)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scenarios: {not: a list}\n"), 0o644))
	_, err = LoadBatchList(bad)
	require.Error(t, err)
}

func TestRunBatch_IsolatesFailingScenarios(t *testing.T) {
	good := testutil.NewScenarioDir(t, "good").
		WriteManifest().
		SingleBusLoad("10", "t01")
	broken := testutil.NewScenarioDir(t, "broken") // no manifest at all

	o := newOrchestrator(&testutil.FakeAdapter{}, balance.New())
	load := func(ctx context.Context, dir string) (*scenario.Scenario, error) {
		return config.LoadScenario(ctx, dir)
	}

	failed := o.RunBatch(context.Background(), []string{good.Dir, broken.Dir}, 2, load)
	require.Equal(t, 1, failed)

	require.Equal(t, StatusComplete, o.Runs().Status("good"))
	_, err := os.Stat(filepath.Join(good.Dir, "results", "aggregate.csv"))
	require.NoError(t, err, "a sibling scenario failing must not disturb a completed one")
}
