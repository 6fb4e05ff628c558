// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Pre-commit installs and runs a Git pre-commit hook.

On its first run in a non-CI environment, it automatically creates the
.git/hooks/pre-commit script. This script simply calls 'go tool pre-commit'
again, ensuring that the checks are run on every subsequent commit.

Checks are configured through a .devtools.txtar file in the root of the
repository. This file is a txtar archive and can contain a pre-commit.yaml
file with a list of checks, each with the following fields:

  - run: A string array where the first element is the command to run and the
    rest are its arguments (e.g., ["go", "test", "./..."]).
  - files: A regular expression matched against slash-separated paths
    relative to the repository root. If set, the check only runs when a
    file matches.
  - pass_filenames: A boolean that, if true, appends the matching files to
    the command line.
  - skip_in_ci: A boolean that, if true, causes the check to be skipped when
    the CI environment variable is set to "true".
  - only_in_ci: A boolean that, if true, causes the check to run only when the
    CI environment variable is set to "true".
  - skip_branches: Glob patterns of branch names the check is skipped on
    (e.g., ["release/*"]).

Files are the ones staged for commit, or, with -all, every tracked and
untracked file that is not ignored.

For example, to run both Django hooks:

	-- pre-commit.yaml --
	- run: [go, run, ./devtools/check-debug-mode, --project-folder, example]
	  files: \.py$
	- run: [go, run, ./devtools/po-location-format]
	  files: \.po$
	  pass_filenames: true
*/
package main

import (
	_ "embed"

	"go.astrophena.name/djangohooks/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
