// Package remap rewrites absolute paths recorded at backup time onto the
// home directory of the machine performing the restore. A backup taken under
// one user account can then be restored coherently under a different one.
package remap

import "strings"

// Adjust maps a recorded absolute path onto the current home directory.
//
// If original begins with a user-profile root — a drive letter followed by a
// "Users" segment and exactly one username segment (Windows), or a root-level
// "home" or "Users" segment followed by a username (Unix, macOS) — that whole
// prefix is replaced by home and the remainder appended unchanged, re-joined
// with home's own separator style. Paths outside a user profile are returned
// as recorded: shared or system locations are deliberately not rewritten,
// whether or not they turn out to be writable here.
func Adjust(original, home string) string {
	rest, ok := splitProfile(original)
	if !ok {
		return original
	}

	sep := "/"
	if strings.ContainsRune(home, '\\') {
		sep = `\`
	}

	adjusted := strings.TrimRight(home, `/\`)
	for _, seg := range rest {
		adjusted += sep + seg
	}

	return adjusted
}

// splitProfile returns the path segments following a user-profile prefix,
// or ok=false when original is not under one.
func splitProfile(original string) (rest []string, ok bool) {
	unixRooted := strings.HasPrefix(original, "/")

	segs := splitSegments(original)
	if len(segs) == 0 {
		return nil, false
	}

	switch {
	case isDriveLetter(segs[0]):
		// <drive>:\Users\<name>\...
		if len(segs) >= 3 && strings.EqualFold(segs[1], "users") {
			return segs[3:], true
		}
	case unixRooted:
		// /home/<name>/... or /Users/<name>/...
		if len(segs) >= 2 && (segs[0] == "home" || segs[0] == "Users") {
			return segs[2:], true
		}
	}

	return nil, false
}

func splitSegments(path string) []string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return parts
}

func isDriveLetter(seg string) bool {
	if len(seg) != 2 || seg[1] != ':' {
		return false
	}
	c := seg[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
