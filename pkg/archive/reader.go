package archive

import (
	"archive/tar"
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/konserve-app/konserve/pkg/fingerprint"
	"github.com/konserve-app/konserve/pkg/types"
)

// ListEntries opens the archive, decodes its fingerprint, and returns every
// content entry (the fingerprint itself excluded) together with the map from
// top-level basename to original absolute path.
//
// It fails with fingerprint.ErrInvalidFingerprint when the fingerprint entry
// is missing or does not carry the signature token.
func ListEntries(archivePath string) ([]types.ArchiveEntry, types.PathKeyMap, error) {
	var entries []types.ArchiveEntry
	var keyMap types.PathKeyMap

	err := walk(archivePath, func(entry types.ArchiveEntry, r io.Reader) error {
		entries = append(entries, entry)
		return nil
	}, func(text string) error {
		m, err := fingerprint.Decode(text)
		if err != nil {
			return err
		}
		keyMap = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if keyMap == nil {
		return nil, nil, errors.Wrapf(fingerprint.ErrInvalidFingerprint, "%s", archivePath)
	}

	return entries, keyMap, nil
}

// Walk iterates the archive's content entries in storage order, calling fn
// with each entry and a reader positioned at its content. The fingerprint
// entry is not passed to fn.
func Walk(archivePath string, fn func(types.ArchiveEntry, io.Reader) error) error {
	return walk(archivePath, fn, nil)
}

func walk(archivePath string, fn func(types.ArchiveEntry, io.Reader) error, onFingerprint func(string) error) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "opening archive %s", archivePath)
	}
	defer f.Close()

	br := bufio.NewReader(f)

	var src io.Reader = br
	if isGzip(br) {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return errors.Wrapf(err, "decompressing %s", archivePath)
		}
		defer gr.Close()
		src = gr
	}

	tr := tar.NewReader(src)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading archive %s", archivePath)
		}

		if hdr.Name == fingerprint.EntryName {
			if onFingerprint == nil {
				continue
			}
			text, err := io.ReadAll(tr)
			if err != nil {
				return errors.Wrap(err, "reading fingerprint")
			}
			if err := onFingerprint(string(text)); err != nil {
				return err
			}
			continue
		}

		entry := types.ArchiveEntry{
			Path: strings.TrimSuffix(hdr.Name, "/"),
			Kind: types.KindFile,
			Size: hdr.Size,
		}
		if hdr.Typeflag == tar.TypeDir {
			entry.Kind = types.KindDir
		}

		if err := fn(entry, tr); err != nil {
			return err
		}
	}
}

// isGzip peeks at the stream's first bytes for the gzip magic number so both
// .tar and .tar.gz archives open transparently.
func isGzip(br *bufio.Reader) bool {
	magic, err := br.Peek(2)
	if err != nil || len(magic) < 2 {
		return false
	}
	return magic[0] == 0x1f && magic[1] == 0x8b
}
