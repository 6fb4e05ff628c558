// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Addcopyright adds a copyright header to source files.

It walks the repository and, for every file whose extension has a template,
prepends the header unless the file already starts with one.

The tool is configured through the copyright.yaml member of the
.devtools.txtar archive in the root of the repository:

	-- copyright.yaml --
	exclude_dirs: [_examples, testdata]
	exclude_files: [cli/internal/*.go]
	templates:
	  .go: |+
	    // © %d Jane Doe. All rights reserved.

	headers:
	  .go: "// ©"

Templates may contain %d, which is replaced with the year the file was last
modified. A file starting with the header of its extension is left alone.
Directories named in exclude_dirs (glob patterns) are skipped along with
hidden ones; exclude_files are glob patterns of slash-separated paths.

With -check, files are not modified: the tool lists files missing a header
and fails if there are any, which suits pre-commit and CI.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/djangohooks/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
