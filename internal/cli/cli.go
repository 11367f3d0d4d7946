// Package cli defines the gridwerk command tree and maps run outcomes onto
// process exit codes: 0 for success, 1 when one or more leaves failed, 2
// for configuration or discovery errors raised before any solve.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gridwerk/gridwerk/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// exitCodeFor classifies a run error into the CLI's exit code contract.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if app.IsConfigurationError(err) {
		return 2
	}
	return 1
}

// NewRootCmd builds the gridwerk command tree writing output to outW.
func NewRootCmd(outW io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gridwerk",
		Short:         "gridwerk builds and solves power-system optimization scenarios",
		Long:          `gridwerk assembles a power-system optimization program from pluggable feature modules, solves it with an external LP/MIP solver, and persists per-leaf and scenario-level results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Logging level: debug, info, warn, or error.")
	rootCmd.PersistentFlags().String("log-format", "text", "Log output format: text or json.")
	rootCmd.PersistentFlags().Int("workers", 4, "Worker pool size; one external solver process per in-flight leaf.")
	rootCmd.PersistentFlags().String("solver-exec", "", "Override the solver executable named in scenario manifests.")
	rootCmd.PersistentFlags().Int("leaf-timeout", 0, "Override the per-leaf wall-clock ceiling, in seconds.")

	rootCmd.AddCommand(newRunCmd(outW))
	rootCmd.AddCommand(newLeafCmd(outW))
	rootCmd.AddCommand(newBatchCmd(outW))

	return rootCmd
}

// appFromCmd constructs the App from the command's persistent flags.
func appFromCmd(cmd *cobra.Command, outW io.Writer) *app.App {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	workers, _ := cmd.Flags().GetInt("workers")
	solverExec, _ := cmd.Flags().GetString("solver-exec")
	leafTimeout, _ := cmd.Flags().GetInt("leaf-timeout")

	return app.New(outW, &app.Config{
		LogLevel:           logLevel,
		LogFormat:          logFormat,
		Workers:            workers,
		SolverExec:         solverExec,
		LeafTimeoutSeconds: leafTimeout,
	}, nil)
}

func newRunCmd(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run SCENARIO_DIR",
		Short: "Run one scenario end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd, outW)
			if err := a.RunScenario(cmd.Context(), args[0]); err != nil {
				return &ExitError{Code: exitCodeFor(err), Message: err.Error()}
			}
			return nil
		},
	}
}

func newLeafCmd(outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaf SCENARIO_DIR",
		Short: "Run a single subproblem/stage leaf in debug mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subproblem, _ := cmd.Flags().GetString("subproblem")
			stage, _ := cmd.Flags().GetString("stage")
			a := appFromCmd(cmd, outW)
			if err := a.RunLeaf(cmd.Context(), args[0], subproblem, stage); err != nil {
				return &ExitError{Code: exitCodeFor(err), Message: err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().String("subproblem", "", "Subproblem name; empty for the implicit subproblem.")
	cmd.Flags().String("stage", "", "Stage name; empty for the implicit stage.")
	return cmd
}

func newBatchCmd(outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch LIST_FILE",
		Short: "Run a list of scenarios with a parallelism degree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parallel, _ := cmd.Flags().GetInt("parallel")
			a := appFromCmd(cmd, outW)
			failed, err := a.RunBatch(cmd.Context(), args[0], parallel)
			if err != nil {
				return &ExitError{Code: exitCodeFor(err), Message: err.Error()}
			}
			if failed > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d scenario(s) failed", failed)}
			}
			return nil
		},
	}
	cmd.Flags().Int("parallel", 2, "Number of scenarios to run concurrently.")
	return cmd
}
