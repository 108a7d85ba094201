package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konserve-app/konserve/pkg/types"
)

func TestSelectionSetSortsAndDedupes(t *testing.T) {
	sel := types.NewSelectionSet("/b", "/a", "/b", "/c", "/a")

	require.Equal(t, []string{"/a", "/b", "/c"}, sel.Paths())
	require.Equal(t, 3, sel.Len())
	require.False(t, sel.IsEmpty())
}

func TestSelectionSetAdd(t *testing.T) {
	sel := types.NewSelectionSet("/b")
	sel.Add("/a", "/b")

	require.Equal(t, []string{"/a", "/b"}, sel.Paths())
}

func TestSelectionSetEmpty(t *testing.T) {
	require.True(t, types.NewSelectionSet().IsEmpty())
}

func TestArchiveEntryKind(t *testing.T) {
	require.True(t, types.ArchiveEntry{Path: "a", Kind: types.KindDir}.IsDir())
	require.False(t, types.ArchiveEntry{Path: "a", Kind: types.KindFile}.IsDir())
}
