package inputs

import "sort"

// Kinds is the set of distinct operational-type identifiers present in a
// leaf's input data. Module discovery matches these against the module
// catalog; an identifier no module claims is a configuration error.
type Kinds map[string]bool

// Has reports membership.
func (k Kinds) Has(kind string) bool { return k[kind] }

// Sorted returns the kinds in stable order, for error messages and logs.
func (k Kinds) Sorted() []string {
	out := make([]string, 0, len(k))
	for kind := range k {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// CollectKinds scans the generators table (when present) for its "kind"
// column and returns the distinct values found.
func CollectKinds(r LeafReader) (Kinds, error) {
	kinds := make(Kinds)
	if !r.HasTable("generators") {
		return kinds, nil
	}
	t, err := r.Table("generators")
	if err != nil {
		return nil, err
	}
	col, err := t.Column("kind")
	if err != nil {
		return nil, err
	}
	for _, v := range col {
		if v != "" {
			kinds[v] = true
		}
	}
	return kinds, nil
}
