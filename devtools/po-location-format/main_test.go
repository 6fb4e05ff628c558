// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/cli/clitest"
	"go.astrophena.name/djangohooks/testutil"
)

const (
	messy = `#: polls/views.py:42 polls/models.py:10
#: polls/views.py:88
msgid "Question"
msgstr "Frage"
`
	canonical = `#: polls/models.py
#: polls/views.py
msgid "Question"
msgstr "Frage"
`
	stripped = `msgid "Question"
msgstr "Frage"
`
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	file := func(name, contents string) string {
		return testutil.WriteFile(t, dir, name, contents)
	}
	wantContents := func(path, want string) func(*testing.T, *app) {
		return func(t *testing.T, _ *app) {
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, string(got), want)
		}
	}

	var (
		messyFile     = file("messy/django.po", messy)
		canonicalFile = file("canonical/django.po", canonical)
		neverFile     = file("never/django.po", messy)
		strippedFile  = file("stripped/django.po", stripped)
	)

	clitest.Run(t, func(t *testing.T) *app { return new(app) }, map[string]clitest.Case[*app]{
		"rewrites": {
			Args:         []string{messyFile},
			WantErr:      errFilesChanged,
			WantInStdout: "Fixing " + messyFile + "\n",
			CheckFunc:    wantContents(messyFile, canonical),
		},
		"canonical file is left alone": {
			Args:               []string{canonicalFile},
			WantNothingPrinted: true,
			CheckFunc:          wantContents(canonicalFile, canonical),
		},
		"never": {
			Args:         []string{"--add-location", "never", neverFile},
			WantErr:      errFilesChanged,
			WantInStdout: "Fixing " + neverFile,
			CheckFunc:    wantContents(neverFile, stripped),
		},
		"never on stripped file": {
			Args:               []string{strippedFile, "--add-location=never"},
			WantNothingPrinted: true,
		},
		"no files": {
			WantNothingPrinted: true,
		},
		"unknown mode": {
			Args:         []string{"--add-location", "full", canonicalFile},
			WantErr:      cli.ErrInvalidArgs,
			WantInStderr: `unknown location mode "full"`,
		},
		"missing file": {
			Args:         []string{filepath.Join(dir, "missing.po"), canonicalFile},
			WantErr:      errRewriteFailed,
			WantInStderr: "missing.po",
		},
	})
}

func TestRunIdempotent(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "django.po", messy)

	clitest.Run(t, func(t *testing.T) *app { return new(app) }, map[string]clitest.Case[*app]{
		"first run": {
			Args:    []string{path},
			WantErr: errFilesChanged,
		},
	})
	clitest.Run(t, func(t *testing.T) *app { return new(app) }, map[string]clitest.Case[*app]{
		"second run": {
			Args:               []string{path},
			WantNothingPrinted: true,
		},
	})
}
