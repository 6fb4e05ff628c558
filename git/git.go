// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package git runs the few git plumbing commands hooks need.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.astrophena.name/djangohooks/logger"
)

var (
	// ErrNotInstalled is returned when the git binary cannot be found.
	ErrNotInstalled = errors.New("git is not installed")
	// ErrDetachedHead is returned by [CurrentBranch] when HEAD does not
	// point to a branch.
	ErrDetachedHead = errors.New("HEAD is detached")
)

// Root returns the top-level directory of the work tree containing dir.
func Root(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the short name of the checked out branch.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		if strings.Contains(err.Error(), "not a symbolic ref") {
			return "", ErrDetachedHead
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// StagedFiles returns the paths of added, copied, modified and renamed files
// in the index, relative to the work tree root.
func StagedFiles(ctx context.Context, dir string) ([]string, error) {
	return list(ctx, dir, "diff", "--cached", "--name-only", "--diff-filter=ACMR", "-z")
}

// TrackedFiles returns the paths of files in the index.
func TrackedFiles(ctx context.Context, dir string) ([]string, error) {
	return list(ctx, dir, "ls-files", "-z")
}

// UntrackedFiles returns the paths of files that are neither tracked nor
// ignored.
func UntrackedFiles(ctx context.Context, dir string) ([]string, error) {
	return list(ctx, dir, "ls-files", "--others", "--exclude-standard", "-z")
}

func list(ctx context.Context, dir string, args ...string) ([]string, error) {
	out, err := run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	var files []string
	for f := range strings.SplitSeq(string(out), "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrNotInstalled
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Debug(ctx, "running git "+strings.Join(args, " "), logger.Path(dir))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
