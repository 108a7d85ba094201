// Package template persists a backup selection as a small JSON document so
// it can be reloaded later, possibly on a different machine or account.
package template

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	"github.com/konserve-app/konserve/pkg/remap"
)

// ErrBadTemplate indicates the template file is not valid JSON of the
// expected shape.
var ErrBadTemplate = errors.New("bad template format")

// Template is the on-disk document: a flat list of absolute paths.
type Template struct {
	Paths []string `json:"paths"`
}

// Save writes the paths to templatePath as pretty-printed JSON. The write is
// atomic: the file is either fully replaced or untouched.
func Save(templatePath string, paths []string) error {
	data, err := json.MarshalIndent(Template{Paths: paths}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "serializing template")
	}

	if err := atomic.WriteFile(templatePath, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "writing template %s", templatePath)
	}

	return nil
}

// Load reads a template and validates its paths against the current
// environment. Each recorded path is remapped onto home first; paths that
// exist after remapping are returned adjusted in valid, the rest are
// reported in skipped (as recorded) rather than failing the load.
func Load(templatePath, home string) (valid, skipped []string, err error) {
	paths, err := LoadRaw(templatePath)
	if err != nil {
		return nil, nil, err
	}

	for _, p := range paths {
		adjusted := remap.Adjust(p, home)
		if _, statErr := os.Stat(adjusted); statErr != nil {
			skipped = append(skipped, p)
			continue
		}
		valid = append(valid, adjusted)
	}

	return valid, skipped, nil
}

// LoadRaw reads a template without validating its paths. The template editor
// uses this so nonexistent paths stay visible for fixing.
func LoadRaw(templatePath string) ([]string, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading template %s", templatePath)
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, errors.Wrapf(ErrBadTemplate, "%s: %v", templatePath, err)
	}

	return tpl.Paths, nil
}
