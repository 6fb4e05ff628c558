// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Po-location-format normalizes location comments in gettext PO files.

Usage:

	$ po-location-format [-add-location file|never] filenames...

With -add-location=file, the default, every run of "#: path:line" comments is
replaced with one "#: path" line per referenced file, sorted and without
line numbers. With -add-location=never, location comments are removed.

Files are rewritten atomically and only when their contents change. The
program prints the name of every rewritten file and exits with status 1 if
any file was rewritten, so pre-commit stops the commit to let the changes be
staged.

The default mode can be set with add_location in .djhooks.yaml or
add-location in the [tool.djhooks] table of pyproject.toml.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/djangohooks/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
