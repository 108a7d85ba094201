package archive_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konserve-app/konserve/pkg/archive"
	"github.com/konserve-app/konserve/pkg/progress"
	"github.com/konserve-app/konserve/pkg/types"
)

// writeFixture lays out a small source tree and returns the selection
// covering it: one directory (with a nested subdirectory) and one file.
func writeFixture(t *testing.T) (sel *types.SelectionSet, projects, notes string) {
	t.Helper()

	src := t.TempDir()

	projects = filepath.Join(src, "Projects")
	require.NoError(t, os.MkdirAll(filepath.Join(projects, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projects, "x.txt"), []byte("x contents"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(projects, "sub", "y.txt"), []byte("y contents"), 0o644))

	notes = filepath.Join(src, "Notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("notes"), 0o644))

	return types.NewSelectionSet(projects, notes), projects, notes
}

func TestCreateAndListEntries(t *testing.T) {
	sel, projects, notes := writeFixture(t)
	outDir := t.TempDir()

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	archivePath, err := archive.Create(sel, outDir, archive.WithTimestamp(ts))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "konserve-backup-20240501-120000.tar"), archivePath)

	entries, keyMap, err := archive.ListEntries(archivePath)
	require.NoError(t, err)

	require.Equal(t, types.PathKeyMap{
		"Projects":  projects,
		"Notes.txt": notes,
	}, keyMap)

	var paths []string
	kinds := map[string]types.EntryKind{}
	for _, e := range entries {
		paths = append(paths, e.Path)
		kinds[e.Path] = e.Kind
	}

	require.ElementsMatch(t, []string{"Notes.txt", "Projects/sub", "Projects/sub/y.txt", "Projects/x.txt"}, paths)
	require.Equal(t, types.KindDir, kinds["Projects/sub"])
	require.Equal(t, types.KindFile, kinds["Projects/x.txt"])
	require.Equal(t, types.KindFile, kinds["Notes.txt"])

	// The selected directory itself must not appear as an entry.
	require.NotContains(t, paths, "Projects")
}

func TestCreateEmptySelection(t *testing.T) {
	_, err := archive.Create(types.NewSelectionSet(), t.TempDir())
	require.ErrorIs(t, err, archive.ErrNothingSelected)
}

func TestCreateReportsProgress(t *testing.T) {
	sel, _, _ := writeFixture(t)

	var cell progress.Cell
	_, err := archive.Create(sel, t.TempDir(), archive.WithProgress(&cell))
	require.NoError(t, err)

	require.Equal(t, progress.Done, cell.Get())
}

func TestCreateCompressedRoundTrip(t *testing.T) {
	sel, _, _ := writeFixture(t)
	outDir := t.TempDir()

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	archivePath, err := archive.Create(sel, outDir, archive.WithTimestamp(ts), archive.WithCompression())
	require.NoError(t, err)
	require.Equal(t, ".gz", filepath.Ext(archivePath))

	// The reader detects compression from content, not extension.
	entries, _, err := archive.ListEntries(archivePath)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestListEntriesRejectsForeignArchive(t *testing.T) {
	// An archive without a fingerprint entry is not one of ours.
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.tar")

	f, err := os.Create(plain)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, err = archive.ListEntries(plain)
	require.Error(t, err)
}

func TestCreateFailsOnMissingSource(t *testing.T) {
	sel := types.NewSelectionSet(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := archive.Create(sel, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "does-not-exist")
}
