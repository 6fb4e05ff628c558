// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package django

import (
	"context"
	"fmt"
	"os"

	"go.astrophena.name/djangohooks/logger"
)

// Status is the outcome of [CheckDebug].
type Status int

const (
	// StatusInconclusive means DEBUG could not be determined: Django is
	// missing, no settings module was found, the settings failed to load,
	// or DEBUG is unset or not a literal.
	StatusInconclusive Status = iota
	// StatusEnabled means DEBUG is set to something other than False.
	StatusEnabled
	// StatusDisabled means DEBUG is explicitly False.
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusEnabled:
		return "enabled"
	default:
		return "inconclusive"
	}
}

// Options configure [CheckDebug].
type Options struct {
	// ProjectDir is the root of the Django project.
	ProjectDir string
	// SettingsModule, if set, is used instead of searching bootstrap files.
	SettingsModule string
	// Exclude lists extra directory globs skipped while searching.
	Exclude []string
	// Loader reads the settings. Defaults to a [StaticLoader].
	Loader Loader
}

// Result describes what [CheckDebug] found.
type Result struct {
	Status Status
	// Reference is the settings module used, if one was found.
	Reference Reference
	// Value is the DEBUG value; meaningful only if Set is true.
	Value Value
	// Set reports whether DEBUG is defined.
	Set bool
	// Err is the reason DEBUG could not be read, if any.
	Err error
}

// Disabled reports whether DEBUG is confirmed to be disabled. Every other
// outcome, including errors, counts as not disabled.
func (r Result) Disabled() bool { return r.Status == StatusDisabled }

// CheckDebug finds the settings of the project and reads DEBUG.
func CheckDebug(ctx context.Context, opts Options) Result {
	if info, err := os.Stat(opts.ProjectDir); err != nil {
		return Result{Err: fmt.Errorf("%w: project folder: %w", ErrNotInitialized, err)}
	} else if !info.IsDir() {
		return Result{Err: fmt.Errorf("%w: project folder %s is not a directory", ErrNotInitialized, opts.ProjectDir)}
	}

	ref := Reference{Module: opts.SettingsModule}
	if ref.Module == "" {
		var err error
		ref, err = Locate(ctx, opts.ProjectDir, opts.Exclude...)
		if err != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrNotInitialized, err)}
		}
	}
	logger.Debug(ctx, "using settings module "+ref.Module)

	loader := opts.Loader
	if loader == nil {
		loader = new(StaticLoader)
	}
	settings, err := loader.Load(ctx, opts.ProjectDir, ref)
	if err != nil {
		return Result{Reference: ref, Err: fmt.Errorf("%w: %w", ErrNotInitialized, err)}
	}

	v, ok, err := settings.Lookup(ctx, "DEBUG")
	if err != nil {
		return Result{Reference: ref, Err: fmt.Errorf("failed to read DEBUG: %w", err)}
	}
	res := Result{Reference: ref, Value: v, Set: ok}
	switch x := v.(type) {
	case bool:
		if !ok {
			break
		}
		res.Status = StatusEnabled
		if !x {
			res.Status = StatusDisabled
		}
	case Expr:
		// Decided at runtime.
	default:
		if ok {
			res.Status = StatusEnabled
		}
	}
	return res
}
