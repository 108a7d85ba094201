package archive_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konserve-app/konserve/pkg/archive"
	"github.com/konserve-app/konserve/pkg/types"
)

func entriesFromPaths(files []string, dirs []string) []types.ArchiveEntry {
	var out []types.ArchiveEntry
	for _, p := range files {
		out = append(out, types.ArchiveEntry{Path: p, Kind: types.KindFile})
	}
	for _, p := range dirs {
		out = append(out, types.ArchiveEntry{Path: p, Kind: types.KindDir})
	}
	return out
}

func TestBuildTree(t *testing.T) {
	entries := entriesFromPaths([]string{"a/b.txt", "a/c/d.txt"}, []string{"a/c"})

	root := archive.BuildTree(entries)

	a := root.Children["a"]
	require.NotNil(t, a)
	require.False(t, a.IsFile)
	require.True(t, a.Checked)

	b := a.Children["b.txt"]
	require.NotNil(t, b)
	require.True(t, b.IsFile)
	require.True(t, b.Checked)
	require.Empty(t, b.Children)

	c := a.Children["c"]
	require.NotNil(t, c)
	require.False(t, c.IsFile)

	d := c.Children["d.txt"]
	require.NotNil(t, d)
	require.True(t, d.IsFile)
	require.True(t, d.Checked)
}

func TestBuildTreeOrderIndependent(t *testing.T) {
	forward := entriesFromPaths([]string{"a/b.txt", "a/c/d.txt"}, []string{"a/c"})
	backward := entriesFromPaths([]string{"a/c/d.txt", "a/b.txt"}, nil)
	backward = append(entriesFromPaths(nil, []string{"a/c"}), backward...)

	require.Equal(t, archive.BuildTree(forward), archive.BuildTree(backward))
}

func TestSetCheckedAndCollect(t *testing.T) {
	entries := entriesFromPaths([]string{"a/b.txt", "a/c/d.txt"}, []string{"a/c"})
	root := archive.BuildTree(entries)

	root.SetChecked("", false)
	require.True(t, root.SetChecked("a/c", true))
	require.False(t, root.SetChecked("a/nope", true))

	require.Equal(t, []string{"a/c", "a/c/d.txt"}, root.CollectChecked())
}

func TestSelectionMatches(t *testing.T) {
	sel := archive.NewSelection([]string{"a/c"})

	require.True(t, sel.Matches("a/c"), "exact match")
	require.True(t, sel.Matches("a/c/d.txt"), "descendant of selected dir")
	require.True(t, sel.Matches("a"), "ancestor of selected path")
	require.False(t, sel.Matches("a/b.txt"), "sibling outside selection")
	require.False(t, sel.Matches("ab"), "prefix but not a segment boundary")
}
