package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/orchestrator"
)

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, 0, exitCodeFor(nil))
	require.Equal(t, 2, exitCodeFor(&engine.ConfigurationError{Detail: "bad manifest"}))
	require.Equal(t, 1, exitCodeFor(&orchestrator.LeafFailureError{Scenario: "toy", Failed: 2}))
	require.Equal(t, 1, exitCodeFor(errors.New("anything else")))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd(&bytes.Buffer{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "run")
	require.Contains(t, names, "leaf")
	require.Contains(t, names, "batch")
}

func TestRunCmd_MissingScenarioDirExitsTwo(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd(&out)
	root.SetArgs([]string{"run", t.TempDir()})
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code, "a directory without a manifest is a configuration error")
}
