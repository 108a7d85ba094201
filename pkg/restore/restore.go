// Package restore extracts a Konserve archive — or a user-chosen subset of
// it — back to the filesystem, remapping recorded user-profile paths onto the
// current home directory.
package restore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/konserve-app/konserve/pkg/archive"
	"github.com/konserve-app/konserve/pkg/progress"
	"github.com/konserve-app/konserve/pkg/remap"
	"github.com/konserve-app/konserve/pkg/types"
)

// Option configures a restore run.
type Option func(*config)

type config struct {
	cell *progress.Cell
	log  *zap.SugaredLogger
}

// WithProgress attaches a progress cell updated after every processed entry.
func WithProgress(cell *progress.Cell) Option {
	return func(c *config) {
		c.cell = cell
	}
}

// WithLogger attaches a logger; defaults to a nop logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// Restore extracts entries from the archive at archivePath. A nil selection
// restores everything; otherwise only entries matching the selection are
// written. Each entry's destination derives from the original absolute path
// recorded in the fingerprint, with user-profile prefixes remapped onto home.
//
// Entries whose top-level key has no fingerprint record are skipped. Any
// write failure aborts the remaining entries; files already restored stay on
// disk.
func Restore(archivePath string, sel archive.Selection, home string, opts ...Option) error {
	cfg := &config{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(cfg)
	}

	entries, keyMap, err := archive.ListEntries(archivePath)
	if err != nil {
		return err
	}

	r := &restorer{
		cfg:    cfg,
		sel:    sel,
		keyMap: keyMap,
		home:   home,
		total:  len(entries),
	}

	if err := archive.Walk(archivePath, r.restoreEntry); err != nil {
		return err
	}

	if cfg.cell != nil {
		cfg.cell.Finish()
	}

	cfg.log.Infow("restore finished", "archive", archivePath, "entries", r.total)

	return nil
}

type restorer struct {
	cfg       *config
	sel       archive.Selection
	keyMap    types.PathKeyMap
	home      string
	total     int
	processed int
}

func (r *restorer) restoreEntry(entry types.ArchiveEntry, content io.Reader) error {
	defer r.advance()

	if r.sel != nil && !r.sel.Matches(entry.Path) {
		return nil
	}

	topKey, rel, nested := splitTop(entry.Path)

	original, ok := r.keyMap[topKey]
	if !ok {
		// No fingerprint record for this top-level key; nothing to
		// anchor the destination on.
		r.cfg.log.Debugw("skipping entry without fingerprint record", "entry", entry.Path)
		return nil
	}

	dest := remap.Adjust(original, r.home)
	if nested {
		dest = filepath.Join(dest, filepath.FromSlash(rel))
	}

	if entry.IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory %s", dest)
		}
		return nil
	}

	return writeFile(dest, content)
}

func (r *restorer) advance() {
	r.processed++
	if r.cfg.cell != nil {
		r.cfg.cell.Update(r.processed, r.total)
	}
}

// splitTop splits an entry path into its top-level key and the remainder.
// nested is false for single-segment paths (top-level file selections).
func splitTop(path string) (topKey, rel string, nested bool) {
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i], path[i+1:], true
	}
	return path, "", false
}

func writeFile(dest string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", dest)
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dest)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return errors.Wrapf(err, "writing %s", dest)
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", dest)
	}

	return nil
}
