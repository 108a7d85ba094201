package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/konserve-app/konserve/pkg/fingerprint"
	"github.com/konserve-app/konserve/pkg/progress"
	"github.com/konserve-app/konserve/pkg/types"
)

// ErrNothingSelected is returned when Create is called with an empty
// selection. No archive file is created in that case.
var ErrNothingSelected = errors.New("nothing selected for backup")

// Option configures archive creation.
type Option func(*config)

type config struct {
	compress  bool
	timestamp time.Time
	cell      *progress.Cell
	log       *zap.SugaredLogger
}

// WithCompression writes a gzip-compressed .tar.gz instead of a plain .tar.
func WithCompression() Option {
	return func(c *config) {
		c.compress = true
	}
}

// WithTimestamp sets the timestamp used in the archive file name and entry
// headers. If zero, time.Now() is used, which breaks determinism across runs.
func WithTimestamp(t time.Time) Option {
	return func(c *config) {
		c.timestamp = t
	}
}

// WithProgress attaches a progress cell updated after every written entry.
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

// Create packages the selection into one archive under outputDir and returns
// the archive's path. The fingerprint entry is written first, then each
// top-level item in selection order: a file becomes a single entry named by
// its basename; a directory is walked recursively and each descendant stored
// as "<basename>/<relative-path>", the directory itself getting no entry of
// its own.
//
// Any read or write failure aborts the whole operation; the partial archive
// written so far is left on disk.
func Create(sel *types.SelectionSet, outputDir string, opts ...Option) (string, error) {
	cfg := &config{
		timestamp: time.Now(),
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if sel.IsEmpty() {
		return "", ErrNothingSelected
	}

	total, err := countEntries(sel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}

	name := fmt.Sprintf("konserve-backup-%s.tar", cfg.timestamp.Format("20060102-150405"))
	if cfg.compress {
		name += ".gz"
	}

	archivePath, err := filepath.Abs(filepath.Join(outputDir, name))
	if err != nil {
		return "", errors.Wrap(err, "resolving archive path")
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return "", errors.Wrapf(err, "creating archive %s", archivePath)
	}
	defer f.Close()

	var tw *tar.Writer
	var gw *gzip.Writer
	if cfg.compress {
		gw = gzip.NewWriter(f)
		tw = tar.NewWriter(gw)
	} else {
		tw = tar.NewWriter(f)
	}

	w := &writer{tw: tw, cfg: cfg, total: total}

	if err := w.writeFingerprint(sel); err != nil {
		return "", err
	}

	for _, top := range sel.Paths() {
		if err := w.writeTopLevel(top); err != nil {
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		return "", errors.Wrap(err, "finalizing archive")
	}
	if gw != nil {
		if err := gw.Close(); err != nil {
			return "", errors.Wrap(err, "finalizing compression")
		}
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing archive %s", archivePath)
	}

	if w.cfg.cell != nil {
		w.cfg.cell.Finish()
	}

	cfg.log.Infow("archive created", "path", archivePath, "entries", total)

	return archivePath, nil
}

type writer struct {
	tw        *tar.Writer
	cfg       *config
	total     int
	processed int
}

func (w *writer) writeFingerprint(sel *types.SelectionSet) error {
	content := []byte(fingerprint.Encode(sel))

	hdr := &tar.Header{
		Name:     fingerprint.EntryName,
		Size:     int64(len(content)),
		Mode:     0o644,
		ModTime:  w.cfg.timestamp,
		Typeflag: tar.TypeReg,
	}

	if err := w.tw.WriteHeader(hdr); err != nil {
		return errors.Wrap(err, "writing fingerprint header")
	}
	if _, err := w.tw.Write(content); err != nil {
		return errors.Wrap(err, "writing fingerprint")
	}

	return nil
}

func (w *writer) writeTopLevel(top string) error {
	info, err := os.Stat(top)
	if err != nil {
		return errors.Wrapf(err, "reading %s", top)
	}

	base := filepath.Base(top)

	if !info.IsDir() {
		if err := w.writeFile(top, base, info); err != nil {
			return err
		}
		w.advance()
		return nil
	}

	return filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}

		rel, err := filepath.Rel(top, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}
		if rel == "." {
			// The selected directory itself has no entry.
			return nil
		}

		entryName := base + "/" + filepath.ToSlash(rel)

		if d.IsDir() {
			if err := w.writeDirMarker(entryName); err != nil {
				return err
			}
			w.advance()
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if err := w.writeFile(path, entryName, fi); err != nil {
			return err
		}
		w.advance()
		return nil
	})
}

func (w *writer) writeFile(path, entryName string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.Wrapf(err, "building header for %s", path)
	}
	hdr.Name = entryName

	if err := w.tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing header for %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(w.tw, f); err != nil {
		return errors.Wrapf(err, "copying %s", path)
	}

	return nil
}

func (w *writer) writeDirMarker(entryName string) error {
	hdr := &tar.Header{
		Name:     entryName + "/",
		Mode:     0o755,
		ModTime:  w.cfg.timestamp,
		Typeflag: tar.TypeDir,
	}

	if err := w.tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing directory marker %s", entryName)
	}

	return nil
}

func (w *writer) advance() {
	w.processed++
	if w.cfg.cell != nil {
		w.cfg.cell.Update(w.processed, w.total)
	}
}

// countEntries pre-computes the number of content entries the archive will
// hold so progress can be reported as a percentage.
func countEntries(sel *types.SelectionSet) (int, error) {
	total := 0

	for _, top := range sel.Paths() {
		info, err := os.Stat(top)
		if err != nil {
			return 0, errors.Wrapf(err, "reading %s", top)
		}

		if !info.IsDir() {
			total++
			continue
		}

		err = filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errors.Wrapf(err, "walking %s", path)
			}
			if path != top {
				total++
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}
