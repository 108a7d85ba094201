// Package fingerprint encodes and decodes the manifest block embedded in
// every Konserve archive. The fingerprint records, for each top-level
// selection, the absolute path it was backed up from, so a restore can put
// contents back where they came from.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/konserve-app/konserve/pkg/types"
)

const (
	// EntryName is the archive entry holding the fingerprint.
	EntryName = "fingerprint.txt"

	// Signature is the token that authenticates an archive as a Konserve
	// backup. Decode rejects any text that does not contain it.
	Signature = "Konserve Backup Fingerprint"

	headerLine = "Backed up folders:"
)

// ErrInvalidFingerprint indicates the archive carries no valid fingerprint
// and was not produced by this tool.
var ErrInvalidFingerprint = errors.New("invalid fingerprint: archive was not created by konserve")

// Encode renders the fingerprint text for a selection: the signature line,
// a header, then one "Folder <N>: <path>" line per top-level item in
// selection order, 1-indexed.
func Encode(sel *types.SelectionSet) string {
	var b strings.Builder
	b.WriteString(Signature)
	b.WriteByte('\n')
	b.WriteString(headerLine)
	b.WriteByte('\n')

	for i, p := range sel.Paths() {
		fmt.Fprintf(&b, "Folder %d: %s\n", i+1, p)
	}

	return b.String()
}

// Decode parses fingerprint text into a PathKeyMap keyed by top-level
// basename. It fails with ErrInvalidFingerprint unless the signature token
// appears somewhere in the text. Every line containing ": " is split on the
// first occurrence and the remainder taken as an absolute path; lines of any
// other shape are ignored. If two paths share a basename the later line
// overwrites the earlier one.
func Decode(text string) (types.PathKeyMap, error) {
	if !strings.Contains(text, Signature) {
		return nil, ErrInvalidFingerprint
	}

	keyMap := types.PathKeyMap{}

	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ": ")
		if idx < 0 {
			continue
		}

		path := strings.TrimRight(line[idx+2:], "\r")
		if path == "" {
			continue
		}

		keyMap[Basename(path)] = path
	}

	return keyMap, nil
}

// Basename returns the final segment of a path that may use either slash or
// backslash separators. Recorded paths keep the separator convention of the
// machine the backup was taken on.
func Basename(path string) string {
	path = strings.TrimRight(path, `/\`)

	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}

	return path
}
