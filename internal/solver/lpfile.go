package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/gridwerk/gridwerk/internal/program"
)

// lpLayout records how concrete columns were mapped onto LP file columns.
// Fixed columns are folded into constants and get no LP column at all.
type lpLayout struct {
	// lpCol[i] is the LP column index for concrete column i, or -1 if the
	// column was emitted as a constant.
	lpCol []int
	// free[j] is the concrete column index behind LP column j.
	free []int
}

// writeLP emits the concrete program in CPLEX LP format. Columns are named
// x0..xN in LP column order so solution files can be mapped back by index
// regardless of what characters the model's own names contain.
func writeLP(w io.Writer, prog *program.Concrete) (*lpLayout, error) {
	layout := &lpLayout{lpCol: make([]int, len(prog.Columns))}
	for i, col := range prog.Columns {
		if col.Fixed {
			layout.lpCol[i] = -1
			continue
		}
		layout.lpCol[i] = len(layout.free)
		layout.free = append(layout.free, i)
	}

	if len(layout.free) == 0 {
		return nil, fmt.Errorf("program has no free columns left to solve")
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "\\ generated by gridwerk")
	fmt.Fprintln(bw, "Minimize")
	fmt.Fprint(bw, " obj:")
	wrote := false
	for _, t := range prog.Objective {
		j := layout.lpCol[t.Col]
		if j < 0 {
			// Constant objective contribution; solvers ignore offsets, the
			// exporter re-adds fixed-column cost when reporting.
			continue
		}
		fmt.Fprintf(bw, " %+g x%d", t.Coeff, j)
		wrote = true
	}
	if !wrote {
		// LP format requires a non-empty objective.
		fmt.Fprint(bw, " 0 x0")
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Subject To")
	for ri, row := range prog.Rows {
		rhs := row.RHS
		var terms []string
		for _, t := range row.Terms {
			j := layout.lpCol[t.Col]
			if j < 0 {
				rhs -= t.Coeff * prog.Columns[t.Col].Value
				continue
			}
			terms = append(terms, fmt.Sprintf("%+g x%d", t.Coeff, j))
		}
		if len(terms) == 0 {
			// Fully constant row: verify it holds rather than emitting a
			// degenerate constraint the solver would reject.
			if !constantRowHolds(row.Sense, rhs) {
				return nil, fmt.Errorf("constraint %q is constant and violated after fixing", row.Name)
			}
			continue
		}
		fmt.Fprintf(bw, " r%d:", ri)
		for _, s := range terms {
			fmt.Fprintf(bw, " %s", s)
		}
		fmt.Fprintf(bw, " %s %g\n", row.Sense, rhs)
	}

	fmt.Fprintln(bw, "Bounds")
	for j, ci := range layout.free {
		col := prog.Columns[ci]
		switch {
		case math.IsInf(col.Upper, 1) && col.Lower == 0:
			// default bound, nothing to emit
		case math.IsInf(col.Upper, 1):
			fmt.Fprintf(bw, " x%d >= %g\n", j, col.Lower)
		default:
			fmt.Fprintf(bw, " %g <= x%d <= %g\n", col.Lower, j, col.Upper)
		}
	}

	hasInt := false
	for _, ci := range layout.free {
		if prog.Columns[ci].Integer {
			hasInt = true
			break
		}
	}
	if hasInt {
		fmt.Fprintln(bw, "General")
		for j, ci := range layout.free {
			if prog.Columns[ci].Integer {
				fmt.Fprintf(bw, " x%d\n", j)
			}
		}
	}

	fmt.Fprintln(bw, "End")
	return layout, bw.Flush()
}

func constantRowHolds(sense program.RowSense, rhs float64) bool {
	const eps = 1e-9
	switch sense {
	case program.LessEq:
		return rhs >= -eps
	case program.GreaterEq:
		return rhs <= eps
	default:
		return math.Abs(rhs) <= eps
	}
}
