package solver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/program"
)

// ExecAdapter runs an external LP/MIP solver executable over an LP file and
// reads back a CBC-style solution file. The executable, its name, and its
// option set come from the caller untouched.
type ExecAdapter struct{}

// NewExecAdapter returns a subprocess-backed adapter.
func NewExecAdapter() *ExecAdapter {
	return &ExecAdapter{}
}

// Solve writes the program, invokes the solver, and parses its solution.
// Cancellation kills the subprocess; a deadline expiry is reported as
// StatusTimedOut, any other subprocess failure as StatusError.
func (a *ExecAdapter) Solve(ctx context.Context, prog *program.Concrete, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if opts.Executable == "" {
		return nil, fmt.Errorf("solver %q has no executable configured", opts.Name)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "gridwerk-solve-*")
		if err != nil {
			return nil, fmt.Errorf("create solver work dir: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	lpPath := filepath.Join(workDir, "model.lp")
	solPath := filepath.Join(workDir, "model.sol")

	lpFile, err := os.Create(lpPath)
	if err != nil {
		return nil, fmt.Errorf("create LP file: %w", err)
	}
	layout, err := writeLP(lpFile, prog)
	if cerr := lpFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write LP file: %w", err)
	}

	args := []string{lpPath}
	for _, k := range sortedKeys(opts.Args) {
		args = append(args, k, opts.Args[k])
	}
	args = append(args, "solve", "solution", solPath)

	logger.Debug("Invoking external solver.", "solver", opts.Name, "executable", opts.Executable, "args", args)
	cmd := exec.CommandContext(ctx, opts.Executable, args...)
	cmd.Dir = workDir
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn("Solver hit its time ceiling.", "solver", opts.Name)
			return &Result{Status: StatusTimedOut}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{Status: StatusError}, &Error{
			Status: StatusError,
			Detail: fmt.Sprintf("%v: %s", runErr, firstLine(out)),
		}
	}

	res, err := parseSolutionFile(solPath, prog, layout)
	if err != nil {
		return nil, fmt.Errorf("parse solver output: %w", err)
	}
	logger.Debug("Solver finished.", "solver", opts.Name, "status", res.Status, "objective", res.Objective)
	return res, nil
}

// parseSolutionFile reads a CBC-style solution file: a status line, then one
// line per nonzero column of the form "idx name value reducedCost".
func parseSolutionFile(path string, prog *program.Concrete, layout *lpLayout) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solution file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, fmt.Errorf("solution file %s is empty", path)
	}
	header := strings.ToLower(sc.Text())

	res := &Result{}
	switch {
	case strings.HasPrefix(header, "optimal"):
		res.Status = StatusOptimal
	case strings.HasPrefix(header, "infeasible"):
		res.Status = StatusInfeasible
		return res, nil
	case strings.HasPrefix(header, "unbounded"):
		res.Status = StatusUnbounded
		return res, nil
	case strings.Contains(header, "stopped on time"):
		res.Status = StatusTimedOut
		return res, nil
	default:
		res.Status = StatusError
		return res, nil
	}

	if i := strings.Index(header, "objective value"); i >= 0 {
		v, err := strconv.ParseFloat(strings.TrimSpace(header[i+len("objective value"):]), 64)
		if err == nil {
			res.Objective = v
		}
	}

	values := make([]float64, len(prog.Columns))
	for i, col := range prog.Columns {
		if col.Fixed {
			values[i] = col.Value
			// Fixed columns were folded into the RHS, so their objective
			// contribution re-enters here.
			res.Objective += fixedObjective(prog, i)
		}
	}
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		name := fields[1]
		if !strings.HasPrefix(name, "x") {
			continue
		}
		j, err := strconv.Atoi(name[1:])
		if err != nil || j < 0 || j >= len(layout.free) {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for column %s: %w", name, err)
		}
		values[layout.free[j]] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	res.Values = values
	return res, nil
}

func fixedObjective(prog *program.Concrete, col int) float64 {
	var sum float64
	for _, t := range prog.Objective {
		if t.Col == col {
			sum += t.Coeff * prog.Columns[col].Value
		}
	}
	return sum
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
