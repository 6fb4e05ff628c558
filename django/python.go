// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package django

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.astrophena.name/djangohooks/logger"
	"go.astrophena.name/djangohooks/syncx"
)

// settingsScript builds django.conf.Settings for the module in argv[1] and
// prints the requested attributes the module sets explicitly as JSON. Exit status 3 means Django cannot
// be imported.
const settingsScript = `
import json
import sys

try:
    from django.conf import Settings
except ImportError:
    sys.exit(3)

settings = Settings(sys.argv[1])
out = {}
for name in sys.argv[2:]:
    # Defaults from global_settings are not reported.
    if not settings.is_overridden(name):
        continue
    value = getattr(settings, name)
    if value is None or isinstance(value, (bool, int, float, str)):
        out[name] = {"value": value}
    else:
        out[name] = {"expr": repr(value)}
json.dump(out, sys.stdout)
`

const exitNoDjango = 3

// PythonLoader reads settings by running a Python interpreter with Django
// installed. Every lookup runs the interpreter once; answers are cached.
type PythonLoader struct {
	// Python is the interpreter to run. Defaults to "python3".
	Python string
	// PythonPath lists extra import roots. Relative entries are resolved
	// against the project folder, which is always first.
	PythonPath []string
}

// Load checks that Django can build settings from ref.
func (l *PythonLoader) Load(ctx context.Context, projectDir string, ref Reference) (Settings, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	s := &pythonSettings{loader: l, dir: abs, ref: ref}
	if _, err := s.run(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type pythonSettings struct {
	loader *PythonLoader
	dir    string
	ref    Reference
	cache  syncx.Map[string, pythonValue]
}

type pythonValue struct {
	Value any    `json:"value"`
	Expr  string `json:"expr"`
	set   bool
}

func (s *pythonSettings) Lookup(ctx context.Context, name string) (Value, bool, error) {
	if pv, ok := s.cache.Load(name); ok {
		return pv.value(), pv.set, nil
	}
	out, err := s.run(ctx, name)
	if err != nil {
		return nil, false, err
	}
	pv, ok := out[name]
	pv.set = ok
	s.cache.LoadOrStore(name, pv)
	return pv.value(), pv.set, nil
}

func (pv pythonValue) value() Value {
	if !pv.set {
		return nil
	}
	if pv.Expr != "" {
		return Expr(pv.Expr)
	}
	if n, ok := pv.Value.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return pv.Value
}

func (s *pythonSettings) run(ctx context.Context, names ...string) (map[string]pythonValue, error) {
	python := s.loader.Python
	if python == "" {
		python = "python3"
	}
	if _, err := exec.LookPath(python); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameworkUnavailable, err)
	}

	paths := []string{s.dir}
	for _, p := range s.loader.PythonPath {
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.dir, p)
		}
		paths = append(paths, p)
	}
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		paths = append(paths, existing)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python, append([]string{"-c", settingsScript, s.ref.Module}, names...)...)
	cmd.Dir = s.dir
	cmd.Env = append(os.Environ(),
		"PYTHONPATH="+strings.Join(paths, string(os.PathListSeparator)),
		SettingsModuleVar+"="+s.ref.Module,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug(ctx, "running "+python+" to load "+s.ref.Module, logger.Path(s.dir))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == exitNoDjango {
			return nil, fmt.Errorf("%w: cannot import django with %s", ErrFrameworkUnavailable, python)
		}
		return nil, fmt.Errorf("loading settings %s: %v: %s", s.ref.Module, err, lastLine(stderr.String()))
	}

	out := make(map[string]pythonValue)
	dec := json.NewDecoder(&stdout)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding settings %s: %w", s.ref.Module, err)
	}
	return out, nil
}

// lastLine returns the last non-empty line of a Python traceback, which
// holds the exception.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
