package types

import "sort"

// SelectionSet is the ordered, deduplicated list of absolute paths the user
// picked for backup. Order is sorted lexicographically so that repeated runs
// over the same selection produce the same archive layout.
type SelectionSet struct {
	paths []string
}

// NewSelectionSet builds a SelectionSet from raw paths, sorting and dropping
// duplicates.
func NewSelectionSet(paths ...string) *SelectionSet {
	s := &SelectionSet{}
	s.Add(paths...)
	return s
}

// Add inserts paths into the set, keeping it sorted and duplicate-free.
func (s *SelectionSet) Add(paths ...string) {
	s.paths = append(s.paths, paths...)
	sort.Strings(s.paths)
	s.paths = dedupSorted(s.paths)
}

// Paths returns the selection in order. The returned slice is shared; callers
// must not mutate it.
func (s *SelectionSet) Paths() []string {
	return s.paths
}

// Len reports the number of selected paths.
func (s *SelectionSet) Len() int {
	return len(s.paths)
}

// IsEmpty reports whether nothing is selected.
func (s *SelectionSet) IsEmpty() bool {
	return len(s.paths) == 0
}

func dedupSorted(in []string) []string {
	out := in[:0]
	for i, p := range in {
		if i == 0 || p != in[i-1] {
			out = append(out, p)
		}
	}
	return out
}
