// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package django inspects the settings of a Django project without importing
// it into the calling process.
//
// [Locate] finds the settings module a project declares in its bootstrap
// files, a [Loader] turns that module into [Settings], and [CheckDebug]
// combines both to decide whether DEBUG is disabled.
package django

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrFrameworkUnavailable means Django (or a Python interpreter to run
	// it) is not installed.
	ErrFrameworkUnavailable = errors.New("Django is not available")
	// ErrSettingsNotFound means no bootstrap file declares a settings module.
	ErrSettingsNotFound = errors.New("settings module not found")
	// ErrModuleNotFound means a dotted module path does not resolve to a
	// file in the project.
	ErrModuleNotFound = errors.New("module not found")
	// ErrNotInitialized wraps every failure to find or load the settings,
	// as opposed to failures to read a setting from them.
	ErrNotInitialized = errors.New("Django settings are not initialized")
)

// SettingsModuleVar is the environment variable Django reads the settings
// module from.
const SettingsModuleVar = "DJANGO_SETTINGS_MODULE"

// Reference identifies a settings module.
type Reference struct {
	// Module is the dotted module path, like "mysite.settings".
	Module string
	// File is the file the reference was found in. Empty when it was
	// configured explicitly.
	File string
}

func (r Reference) String() string { return r.Module }

// Settings is a read-only view of a settings object.
type Settings interface {
	// Lookup returns the value of a setting. ok is false if the setting is
	// not defined.
	Lookup(ctx context.Context, name string) (v Value, ok bool, err error)
}

// Loader builds Settings for a settings module of a project.
type Loader interface {
	Load(ctx context.Context, projectDir string, ref Reference) (Settings, error)
}

// Value is a setting value: bool, nil for None, int64, float64, string or
// [Expr].
type Value = any

// Expr is the source text of a value that is not a plain literal, such as
// env.bool("DEBUG").
type Expr string

// Format renders v the way Python's str() would.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return x
	case Expr:
		return string(x)
	}
	return "<unknown>"
}
