// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/natefinch/atomic"
	"golang.org/x/term"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/git"
	"go.astrophena.name/djangohooks/logger"
)

const (
	configFile = ".devtools.txtar"
	checksFile = "pre-commit.yaml"
)

const hookShellScript = `#!/bin/sh
echo "==> Running pre-commit check..."
go tool pre-commit
`

type check struct {
	Run           []string `yaml:"run"`
	Files         string   `yaml:"files"`
	PassFilenames bool     `yaml:"pass_filenames"`
	SkipInCI      bool     `yaml:"skip_in_ci"`
	OnlyInCI      bool     `yaml:"only_in_ci"`
	SkipBranches  []string `yaml:"skip_branches"`

	files    *regexp.Regexp
	branches []glob.Glob
}

func loadChecks(path string) ([]check, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	var checks []check
	for _, f := range ar.Files {
		if f.Name != checksFile {
			continue
		}
		if err := yaml.Unmarshal(f.Data, &checks); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, checksFile, err)
		}
	}
	for i := range checks {
		if err := checks[i].compile(); err != nil {
			return nil, fmt.Errorf("%s: check %d: %w", path, i+1, err)
		}
	}
	return checks, nil
}

func (c *check) compile() error {
	if len(c.Run) == 0 {
		return errors.New("run is empty")
	}
	if c.Files != "" {
		re, err := regexp.Compile(c.Files)
		if err != nil {
			return fmt.Errorf("invalid files pattern: %w", err)
		}
		c.files = re
	}
	for _, p := range c.SkipBranches {
		g, err := glob.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid branch pattern %q: %w", p, err)
		}
		c.branches = append(c.branches, g)
	}
	return nil
}

// match returns the files the check applies to.
func (c *check) match(files []string) []string {
	if c.files == nil {
		return files
	}
	var matched []string
	for _, f := range files {
		if c.files.MatchString(f) {
			matched = append(matched, f)
		}
	}
	return matched
}

func (c *check) skipsBranch(branch string) bool {
	for _, g := range c.branches {
		if g.Match(branch) {
			return true
		}
	}
	return false
}

func main() { cli.Main(new(app)) }

type app struct {
	all bool
	dir string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.all, "all", false, "Run checks against all files instead of staged ones.")
	fs.StringVar(&a.dir, "C", ".", "Run as if started in `dir`.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	root, err := git.Root(ctx, a.dir)
	if err != nil {
		return err
	}
	checks, err := loadChecks(filepath.Join(root, configFile))
	if err != nil {
		return err
	}

	isCI := env.Getenv("CI") == "true"
	if !isCI {
		if err := installHook(ctx, root); err != nil {
			return err
		}
	}

	files, err := a.files(ctx, root)
	if err != nil {
		return err
	}
	branch, err := git.CurrentBranch(ctx, root)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return err
	}

	type task struct {
		c     check
		files []string
	}
	var tasks []task
	for _, c := range checks {
		if (isCI && c.SkipInCI) || (!isCI && c.OnlyInCI) || (branch != "" && c.skipsBranch(branch)) {
			continue
		}
		matched := c.match(files)
		if c.files != nil && len(matched) == 0 {
			continue
		}
		tasks = append(tasks, task{c: c, files: matched})
	}

	width := terminalWidth(env.Stdout)
	for i, t := range tasks {
		fmt.Fprintln(env.Stdout, progressMessage(i+1, len(tasks), t.c.Run, width))
		if err := t.c.run(ctx, root, t.files); err != nil {
			return err
		}
	}
	fmt.Fprintf(env.Stdout, "%d passed, %d skipped\n", len(tasks), len(checks)-len(tasks))
	return nil
}

func (a *app) files(ctx context.Context, root string) ([]string, error) {
	if !a.all {
		return git.StagedFiles(ctx, root)
	}
	tracked, err := git.TrackedFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	untracked, err := git.UntrackedFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	return append(tracked, untracked...), nil
}

func installHook(ctx context.Context, root string) error {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		// Worktrees and submodules keep hooks elsewhere.
		logger.Debug(ctx, "not installing hook: .git is not a directory", logger.Path(root))
		return nil
	}
	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")
	if _, err := os.Stat(hookPath); !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(hookPath, strings.NewReader(hookShellScript)); err != nil {
		return err
	}
	logger.Info(ctx, "installed pre-commit hook", logger.Path(hookPath))
	return os.Chmod(hookPath, 0o755)
}

func (c check) run(ctx context.Context, dir string, files []string) error {
	args := c.Run[1:]
	if c.PassFilenames {
		args = append(args[:len(args):len(args)], files...)
	}
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Run[0], args...)
	cmd.Dir = dir
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("check %q failed: %v:\n%v", c.Run, err, buf.String())
	}
	return nil
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !cli.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

const ellipsis = "..."

// progressMessage formats the line announcing a check, shortened to fit in
// width columns. A width of zero means no limit.
func progressMessage(current, total int, command []string, width int) string {
	prefix := fmt.Sprintf("[%d/%d] Running check ", current, total)
	cmd := strings.Join(command, " ")
	if width <= 0 || len(prefix)+utf8.RuneCountInString(cmd) <= width {
		return prefix + cmd
	}
	avail := width - len(prefix)
	if avail <= 0 {
		return prefix
	}
	r := []rune(cmd)
	if avail <= len(ellipsis) {
		return prefix + string(r[:min(avail, len(r))])
	}
	return prefix + string(r[:min(avail-len(ellipsis), len(r))]) + ellipsis
}
