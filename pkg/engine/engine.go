// Package engine exposes the front-end facing contract of the backup core:
// starting a backup, opening an archive for restore, and starting a
// selective restore. Every operation runs on its own fire-and-forget worker
// goroutine; the front-end polls the returned handle instead of blocking.
//
// The engine does not serialize same-kind operations. Starting a second
// backup while one is running is allowed here and must be prevented by the
// calling layer if that matters for the deployment.
package engine

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/konserve-app/konserve/pkg/archive"
	"github.com/konserve-app/konserve/pkg/progress"
	"github.com/konserve-app/konserve/pkg/restore"
	"github.com/konserve-app/konserve/pkg/types"
)

// Engine wires the archiver and restorer together for a front-end.
type Engine struct {
	log      *zap.SugaredLogger
	home     string
	compress bool
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger attaches a logger; defaults to a nop logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithHome overrides the home directory used for path remapping during
// restore. Defaults to the current user's home directory.
func WithHome(home string) Option {
	return func(e *Engine) {
		e.home = home
	}
}

// WithCompression makes backups write gzip-compressed archives.
func WithCompression() Option {
	return func(e *Engine) {
		e.compress = true
	}
}

// New builds an engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop().Sugar()}

	for _, opt := range opts {
		opt(e)
	}

	if e.home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			e.home = home
		}
	}

	return e
}

// Handle is the observer's view of one running operation. Progress and
// Status are polled; Done delivers the final result exactly once.
type Handle struct {
	// ID identifies the operation in logs.
	ID string

	// Progress is updated by the worker after each processed entry and
	// set to progress.Done on completion.
	Progress *progress.Cell

	// Status carries the latest human-readable status line.
	Status *progress.Status

	// Done receives the operation's final error (nil on success).
	Done <-chan error

	// ArchivePath is filled by backup workers with the created archive's
	// path once the operation succeeds; read it after Done fires.
	ArchivePath string
}

// StartBackup packages the selection into an archive under outputDir on a
// background worker. An empty selection fails immediately; no worker is
// started.
func (e *Engine) StartBackup(sel *types.SelectionSet, outputDir string) (*Handle, error) {
	if sel.IsEmpty() {
		return nil, archive.ErrNothingSelected
	}

	h, done := newHandle()
	h.Status.Set("Packing into archive...")

	log := e.log.With("op", "backup", "id", h.ID)

	opts := []archive.Option{
		archive.WithProgress(h.Progress),
		archive.WithLogger(log),
	}
	if e.compress {
		opts = append(opts, archive.WithCompression())
	}

	go func() {
		path, err := archive.Create(sel, outputDir, opts...)
		if err != nil {
			log.Errorw("backup failed", "error", err)
			h.Status.Set(fmt.Sprintf("Backup failed: %v", err))
			done <- err
			return
		}

		h.ArchivePath = path
		h.Status.Set(fmt.Sprintf("Backup created: %s", path))
		done <- nil
	}()

	return h, nil
}

// OpenResult is the outcome of opening an archive for restore: the checkable
// selection tree, or the error that prevented building it.
type OpenResult struct {
	Tree        *archive.Node
	ArchivePath string
	Err         error
}

// OpenArchiveForRestore lists the archive and builds its selection tree on a
// background worker, delivering the result over a one-shot channel. The
// front-end shows the tree only once this step has finished, so the result
// travels on a channel rather than through polled state.
func (e *Engine) OpenArchiveForRestore(archivePath string) <-chan OpenResult {
	out := make(chan OpenResult, 1)

	log := e.log.With("op", "open", "id", uuid.NewString())

	go func() {
		entries, _, err := archive.ListEntries(archivePath)
		if err != nil {
			log.Errorw("opening archive failed", "archive", archivePath, "error", err)
			out <- OpenResult{ArchivePath: archivePath, Err: err}
			return
		}

		out <- OpenResult{
			Tree:        archive.BuildTree(entries),
			ArchivePath: archivePath,
		}
	}()

	return out
}

// StartRestore extracts the archive on a background worker. A nil selected
// slice restores everything; otherwise only entries matching the selected
// tree paths are written.
func (e *Engine) StartRestore(archivePath string, selected []string) *Handle {
	h, done := newHandle()
	h.Status.Set("Restoring...")

	var sel archive.Selection
	if selected != nil {
		sel = archive.NewSelection(selected)
	}

	log := e.log.With("op", "restore", "id", h.ID)

	go func() {
		err := restore.Restore(archivePath, sel, e.home,
			restore.WithProgress(h.Progress),
			restore.WithLogger(log),
		)
		if err != nil {
			log.Errorw("restore failed", "archive", archivePath, "error", err)
			h.Status.Set(fmt.Sprintf("Restore failed: %v", err))
			done <- err
			return
		}

		h.Status.Set("Restore complete")
		done <- nil
	}()

	return h
}

func newHandle() (*Handle, chan error) {
	done := make(chan error, 1)

	return &Handle{
		ID:       uuid.NewString(),
		Progress: &progress.Cell{},
		Status:   &progress.Status{},
		Done:     done,
	}, done
}
