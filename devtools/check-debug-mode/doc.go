// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Check-debug-mode fails if DEBUG is not disabled in the settings of a Django
project.

Usage:

	$ check-debug-mode [flags] [filenames...]

File names are accepted for compatibility with pre-commit and ignored: the
whole project is checked.

The settings module is found by looking for DJANGO_SETTINGS_MODULE in the
wsgi.py, asgi.py, manage.py and settings.py files of the project folder,
skipping virtual environments, build output and hidden directories. By
default the settings are read without running any project code; pass
-loader=python to let Django itself build them.

Only an explicit "DEBUG = False" passes. An unset DEBUG, a value computed at
runtime and any failure to load the settings are reported as errors.

Defaults for the flags are read from .djhooks.yaml or the [tool.djhooks]
table of pyproject.toml in the project folder or its parents:

	loader: python
	python: .venv/bin/python
	settings_module: mysite.settings.production
	python_path: [src]
	exclude: ["*.egg-info"]
*/
package main

import (
	_ "embed"

	"go.astrophena.name/djangohooks/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
