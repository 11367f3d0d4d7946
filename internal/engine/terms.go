package engine

import (
	"fmt"

	"github.com/gridwerk/gridwerk/internal/program"
)

// TermsAt expands registry contributions into linear terms for one
// timepoint. Contributed variables follow the convention that their last
// index set is the timepoint set; a variable indexed (S, TP) yields one
// term per member of S, a variable indexed (TP) yields a single term.
func TermsAt(bc *BuildContext, contribs []Contribution, tp string, coeff float64) ([]program.Term, error) {
	var terms []program.Term
	for _, c := range contribs {
		def, err := bc.Program.Variable(c.Handle)
		if err != nil {
			return nil, fmt.Errorf("contribution from module %q: %w", c.Module, err)
		}
		switch len(def.Sets) {
		case 1:
			terms = append(terms, program.T(coeff, def.Name, tp))
		case 2:
			for _, e := range bc.Program.Set(def.Sets[0]) {
				terms = append(terms, program.T(coeff, def.Name, e, tp))
			}
		default:
			return nil, fmt.Errorf("contribution %q from module %q spans %d sets, want 1 or 2", def.Name, c.Module, len(def.Sets))
		}
	}
	return terms, nil
}
