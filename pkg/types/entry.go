package types

// EntryKind distinguishes the two kinds of records an archive can hold.
type EntryKind int

const (
	// KindFile is a regular file entry carrying a byte stream.
	KindFile EntryKind = iota

	// KindDir is a directory marker entry with no content.
	KindDir
)

// ArchiveEntry is one stored unit inside an archive: a slash-separated entry
// path plus its kind. Top-level entries are named by the basename of the
// originally selected path; descendants of a selected directory are named
// "<top-level-basename>/<relative-path>".
type ArchiveEntry struct {
	Path string
	Kind EntryKind
	Size int64
}

// IsDir reports whether the entry is a directory marker.
func (e ArchiveEntry) IsDir() bool {
	return e.Kind == KindDir
}

// PathKeyMap maps a top-level basename to the original absolute path recorded
// in the fingerprint. When two top-level selections share a basename the later
// one wins; see fingerprint.Decode.
type PathKeyMap map[string]string
