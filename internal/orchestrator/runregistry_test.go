package orchestrator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/scenario"
)

func TestRunRegistry_Lifecycle(t *testing.T) {
	r := NewRunRegistry()

	require.Equal(t, StatusPending, r.Status("unknown"))
	require.Equal(t, StatusPending, r.LeafStatus("unknown", scenario.Leaf{}))

	id := r.Begin("winter_peak")
	require.NotEqual(t, uuid.Nil, id)
	require.Equal(t, StatusPending, r.Status("winter_peak"))

	r.SetStatus("winter_peak", StatusRunning)
	leaf := scenario.Leaf{Subproblem: "week1", Stage: "s1"}
	r.SetLeafStatus("winter_peak", leaf, StatusRunning)
	require.Equal(t, StatusRunning, r.Status("winter_peak"))
	require.Equal(t, StatusRunning, r.LeafStatus("winter_peak", leaf))
	require.Equal(t, StatusPending, r.LeafStatus("winter_peak", scenario.Leaf{Subproblem: "week2"}))

	r.SetLeafStatus("winter_peak", leaf, StatusComplete)
	r.SetStatus("winter_peak", StatusComplete)
	require.Equal(t, StatusComplete, r.LeafStatus("winter_peak", leaf))
}

func TestRunRegistry_BeginAssignsFreshID(t *testing.T) {
	r := NewRunRegistry()
	first := r.Begin("toy")
	r.SetStatus("toy", StatusError)

	second := r.Begin("toy")
	require.NotEqual(t, first, second)
	require.Equal(t, StatusPending, r.Status("toy"), "a re-run starts clean")
}

func TestRunStatusString(t *testing.T) {
	require.Equal(t, "pending", StatusPending.String())
	require.Equal(t, "running", StatusRunning.String())
	require.Equal(t, "complete", StatusComplete.String())
	require.Equal(t, "error", StatusError.String())
}
