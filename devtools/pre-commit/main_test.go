// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/testutil"
)

func TestProgressMessage(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		current       int
		total         int
		command       []string
		terminalWidth int
		want          string
	}{
		"no terminal width does not shorten": {
			current:       1,
			total:         1,
			command:       []string{"very-long-command", "with", "arguments"},
			terminalWidth: 0,
			want:          "[1/1] Running check very-long-command with arguments",
		},
		"fits": {
			current:       1,
			total:         2,
			command:       []string{"go", "test", "./..."},
			terminalWidth: 80,
			want:          "[1/2] Running check go test ./...",
		},
		"multibyte command fits by runes": {
			current:       1,
			total:         1,
			command:       []string{"echo", "привет"},
			terminalWidth: 31,
			want:          "[1/1] Running check echo привет",
		},
		"small width with ellipsis": {
			current:       2,
			total:         10,
			command:       []string{"go", "test", "./..."},
			terminalWidth: 28,
			want:          "[2/10] Running check go t...",
		},
		"very small width keeps prefix only": {
			current:       3,
			total:         10,
			command:       []string{"go", "test", "./..."},
			terminalWidth: 10,
			want:          "[3/10] Running check ",
		},
		"very small width trims without ellipsis": {
			current:       2,
			total:         100,
			command:       []string{"go", "test", "./..."},
			terminalWidth: 24,
			want:          "[2/100] Running check go",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := progressMessage(tc.current, tc.total, tc.command, tc.terminalWidth)
			if got != tc.want {
				t.Fatalf("progressMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProgressMessageUsesSpaceInsteadOfTab(t *testing.T) {
	t.Parallel()

	for _, width := range []int{25, 80} {
		got := progressMessage(1, 2, []string{"go", "test", "./..."}, width)
		if strings.Contains(got, "\t") {
			t.Fatalf("progressMessage() contains tab: %q", got)
		}
	}
}

type runCase struct {
	CI         string   `yaml:"ci"`
	Branch     string   `yaml:"branch"`
	All        bool     `yaml:"all"`
	Untracked  []string `yaml:"untracked"`
	WantStdout string   `yaml:"want_stdout"`
	WantHook   string   `yaml:"want_hook"`
	WantErr    string   `yaml:"want_err"`
}

func TestRunFromTxtar(t *testing.T) {
	for _, bin := range []string{"git", "sh"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s is not installed", bin)
		}
	}

	testutil.Run(t, filepath.Join("testdata", "*.txtar"), func(t *testing.T, match string) {
		dir, c := extractRunCase(t, match)

		var stdout bytes.Buffer
		args := []string{"-C", dir}
		if c.All {
			args = append(args, "-all")
		}
		ctx := cli.WithEnv(context.Background(), &cli.Env{
			Args: args,
			Getenv: func(key string) string {
				if key == "CI" {
					return c.CI
				}
				return ""
			},
			Stdin:  strings.NewReader(""),
			Stdout: &stdout,
			Stderr: &bytes.Buffer{},
		})

		err := cli.Run(ctx, new(app))
		switch {
		case c.WantErr != "":
			if err == nil || !strings.Contains(err.Error(), c.WantErr) {
				t.Fatalf("want error containing %q, got %v", c.WantErr, err)
			}
		case err != nil:
			t.Fatalf("Run(): %v", err)
		}

		testutil.AssertEqual(t, stdout.String(), c.WantStdout)

		hookPath := filepath.Join(dir, ".git", "hooks", "pre-commit")
		hook, err := os.ReadFile(hookPath)
		if c.WantHook == "" {
			if c.CI == "true" && err == nil {
				t.Fatalf("hook %s installed in CI", hookPath)
			}
			return
		}
		if err != nil {
			t.Fatalf("ReadFile(%q): %v", hookPath, err)
		}
		testutil.AssertEqual(t, string(hook), c.WantHook)
		info, err := os.Stat(hookPath)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Fatalf("hook %s is not executable: %v", hookPath, info.Mode())
		}
	})
}

// extractRunCase extracts a test archive into a new repository. The
// pre-commit.yaml member becomes the repository's .devtools.txtar, case.yaml
// describes the expectations, and every other file is staged unless listed
// as untracked.
func extractRunCase(t *testing.T, path string) (string, runCase) {
	t.Helper()

	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile(%q): %v", path, err)
	}

	var (
		c       runCase
		project txtar.Archive
		checks  []byte
	)
	for _, f := range ar.Files {
		switch f.Name {
		case "case.yaml":
			if err := yaml.Unmarshal(f.Data, &c); err != nil {
				t.Fatalf("Unmarshal(%q): %v", path, err)
			}
		case checksFile:
			checks = f.Data
		default:
			project.Files = append(project.Files, f)
		}
	}
	if c.WantStdout == "" {
		t.Fatalf("missing case.yaml want_stdout in %q", path)
	}

	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q")
	branch := c.Branch
	if branch == "" {
		branch = "trunk"
	}
	gitCmd(t, dir, "symbolic-ref", "HEAD", "refs/heads/"+branch)

	testutil.ExtractTxtar(t, &project, dir)
	config := txtar.Format(&txtar.Archive{
		Files: []txtar.File{{Name: checksFile, Data: checks}},
	})
	testutil.WriteFile(t, dir, configFile, string(config))

	gitCmd(t, dir, "add", "-A")
	if len(c.Untracked) > 0 {
		gitCmd(t, dir, append([]string{"rm", "-q", "--cached", "--"}, c.Untracked...)...)
	}
	return dir, c
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "HOME="+dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestLoadChecksInvalid(t *testing.T) {
	cases := map[string]string{
		"empty run":       "- run: []\n",
		"bad files":       "- run: [\"true\"]\n  files: '('\n",
		"bad branch glob": "- run: [\"true\"]\n  skip_branches: ['[unclosed']\n",
		"not a list":      "run: [\"true\"]\n",
	}
	for name, checks := range cases {
		t.Run(name, func(t *testing.T) {
			config := txtar.Format(&txtar.Archive{
				Files: []txtar.File{{Name: checksFile, Data: []byte(checks)}},
			})
			path := testutil.WriteFile(t, t.TempDir(), configFile, string(config))
			if _, err := loadChecks(path); err == nil {
				t.Fatal("want error, got nil")
			}
		})
	}
}
