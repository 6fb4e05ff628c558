// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/natefinch/atomic"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/logger"
	"go.astrophena.name/djangohooks/walk"
)

const (
	configFile    = ".devtools.txtar"
	copyrightFile = "copyright.yaml"
)

type config struct {
	ExcludeDirs  []string          `yaml:"exclude_dirs"`
	ExcludeFiles []string          `yaml:"exclude_files"`
	Templates    map[string]string `yaml:"templates"`
	Headers      map[string]string `yaml:"headers"`

	files []glob.Glob
}

func (cfg *config) isExcluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range cfg.files {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func parseConfig(path string) (*config, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(config)
	for _, f := range ar.Files {
		if f.Name != copyrightFile {
			continue
		}
		if err := yaml.Unmarshal(f.Data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, copyrightFile, err)
		}
	}
	for _, p := range cfg.ExcludeFiles {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%s: invalid exclude_files pattern %q: %w", path, p, err)
		}
		cfg.files = append(cfg.files, g)
	}
	return cfg, nil
}

func main() { cli.Main(new(app)) }

var errMissingHeaders = errors.New("files are missing copyright headers")

type app struct {
	dry   bool
	check bool
	dir   string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.dry, "dry", false, "Print the files that would have a copyright header added, without making changes.")
	fs.BoolVar(&a.check, "check", false, "Fail if any file is missing a copyright header, without making changes.")
	fs.StringVar(&a.dir, "C", ".", "Repository root `dir`.")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	cfg, err := parseConfig(filepath.Join(a.dir, configFile))
	if err != nil {
		return err
	}
	m, err := walk.NewMatcher(cfg.ExcludeDirs)
	if err != nil {
		return err
	}

	exts := make([]string, 0, len(cfg.Templates))
	for ext := range cfg.Templates {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	var missing int
	for _, ext := range exts {
		header, ok := cfg.Headers[ext]
		if !ok {
			return fmt.Errorf("no header for template %s", ext)
		}
		files, err := m.Files(ctx, a.dir, ext)
		if err != nil {
			return err
		}
		for _, path := range files {
			rel, err := filepath.Rel(a.dir, path)
			if err != nil {
				return err
			}
			if cfg.isExcluded(rel) {
				continue
			}
			added, err := a.addHeader(ctx, path, rel, cfg.Templates[ext], header)
			if err != nil {
				return err
			}
			if added {
				missing++
			}
		}
	}

	if a.check && missing > 0 {
		fmt.Fprintf(env.Stderr, "%d files are missing copyright headers; run addcopyright to add them\n", missing)
		return cli.Quiet(errMissingHeaders)
	}
	return nil
}

// addHeader reports whether the file lacked a header.
func (a *app) addHeader(ctx context.Context, path, rel, tmpl, header string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if bytes.HasPrefix(content, []byte(header)) {
		// Already has a copyright header.
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	hdr := tmpl
	if strings.Contains(tmpl, "%d") {
		hdr = fmt.Sprintf(tmpl, info.ModTime().Year())
	}

	switch {
	case a.check:
		fmt.Fprintln(cli.GetEnv(ctx).Stdout, rel)
		return true, nil
	case a.dry:
		cli.GetEnv(ctx).Logf("Would add copyright header to file %s:\n%s", rel, hdr)
		return true, nil
	}

	var buf bytes.Buffer
	buf.WriteString(hdr)
	buf.Write(content)
	if err := atomic.WriteFile(path, &buf); err != nil {
		return false, err
	}
	logger.Info(ctx, "added copyright header", logger.Path(rel))
	return true, nil
}
