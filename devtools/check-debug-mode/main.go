// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/fatih/color"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/config"
	"go.astrophena.name/djangohooks/django"
	"go.astrophena.name/djangohooks/logger"
)

func main() { cli.Main(new(app)) }

var errDebugNotDisabled = errors.New("DEBUG mode is not disabled in Django settings")

type app struct {
	projectFolder  string
	loader         string
	python         string
	settingsModule string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.projectFolder, "project-folder", ".", "Django project `folder` to check.")
	fs.StringVar(&a.loader, "loader", "", "How to read settings: static or python (default from configuration, then static).")
	fs.StringVar(&a.python, "python", "", "Python `interpreter` for the python loader (default python3).")
	fs.StringVar(&a.settingsModule, "settings", "", "Settings `module` to check instead of searching for "+django.SettingsModuleVar+".")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	file, err := config.Load(a.projectFolder)
	if err != nil {
		return err
	}
	cfg := (&config.Config{
		SettingsModule: a.settingsModule,
		Loader:         a.loader,
		Python:         a.python,
	}).Merge(file)
	if cfg.Path != "" {
		logger.Debug(ctx, "loaded configuration", logger.Path(cfg.Path))
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	res := django.CheckDebug(ctx, django.Options{
		ProjectDir:     a.projectFolder,
		SettingsModule: cfg.SettingsModule,
		Exclude:        cfg.Exclude,
		Loader:         loader,
	})

	p := newPrinter(env.Stdout)
	switch {
	case res.Err == nil:
		fmt.Fprintf(env.Stdout, "DEBUG mode: %s\n", django.Format(res.Value))
		if _, ok := res.Value.(django.Expr); ok {
			logger.Warn(ctx, "DEBUG is computed at runtime and cannot be checked statically; try -loader=python")
		}
	case errors.Is(res.Err, django.ErrNotInitialized):
		logger.Warn(ctx, res.Err.Error())
		p.error("ERROR: Django settings are not initialized")
	default:
		logger.Warn(ctx, res.Err.Error())
		p.error("ERROR: Failed to check DEBUG mode")
	}

	if !res.Disabled() {
		p.error("ERROR: " + errDebugNotDisabled.Error())
		return cli.Quiet(errDebugNotDisabled)
	}
	p.ok("OK: DEBUG is correctly disabled in Django settings")
	return nil
}

func newLoader(cfg *config.Config) (django.Loader, error) {
	switch cfg.Loader {
	case "static":
		return &django.StaticLoader{PythonPath: cfg.PythonPath}, nil
	case "python":
		return &django.PythonLoader{Python: cfg.Python, PythonPath: cfg.PythonPath}, nil
	}
	return nil, fmt.Errorf("%w: unknown loader %q (want static or python)", cli.ErrInvalidArgs, cfg.Loader)
}

type printer struct {
	w     io.Writer
	red   *color.Color
	green *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:     w,
		red:   color.New(color.FgRed, color.Bold),
		green: color.New(color.FgGreen, color.Bold),
	}
	if cli.IsTerminalWriter(w) {
		p.red.EnableColor()
		p.green.EnableColor()
	} else {
		p.red.DisableColor()
		p.green.DisableColor()
	}
	return p
}

func (p *printer) error(line string) { p.red.Fprintln(p.w, line) }
func (p *printer) ok(line string)    { p.green.Fprintln(p.w, line) }
