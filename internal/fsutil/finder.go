// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"sort"
)

// ListSubdirs returns the sorted names of the immediate subdirectories of
// path. A missing path yields an empty slice, not an error, because absent
// layout directories mean "implicit single element" to the caller.
func ListSubdirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
