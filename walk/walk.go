// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package walk finds project files while skipping virtual environments,
// build output and other directories that never hold project sources.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"go.astrophena.name/djangohooks/logger"
)

// DefaultExclude lists directory names skipped by default. Directories
// starting with a dot are always skipped.
var DefaultExclude = []string{
	"venv",
	"__pycache__",
	"node_modules",
	"build",
	"dist",
	"migrations",
	"media",
	"static",
	"staticfiles",
	"templates",
	"deactivate",
}

// Matcher decides which directories to skip.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles directory name patterns in glob syntax, such as
// "venv" or "*.egg-info".
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Excluded reports whether a directory with the given base name is skipped.
func (m *Matcher) Excluded(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Files returns paths of regular files under root whose names end with ext,
// in lexical walk order. Excluded directories below root are not entered.
// Entries below root that cannot be read are logged and skipped; only an
// unreadable root is an error.
func (m *Matcher) Files(ctx context.Context, root, ext string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn(ctx, "skipping unreadable path: "+err.Error(), logger.Path(path))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && m.Excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ext) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Files is like [Matcher.Files] with [DefaultExclude] and extra patterns.
func Files(ctx context.Context, root, ext string, exclude ...string) ([]string, error) {
	m, err := NewMatcher(append(append([]string(nil), DefaultExclude...), exclude...))
	if err != nil {
		return nil, err
	}
	return m.Files(ctx, root, ext)
}
