// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"go.astrophena.name/djangohooks/cli"
	"go.astrophena.name/djangohooks/config"
	"go.astrophena.name/djangohooks/logger"
	"go.astrophena.name/djangohooks/po"
)

func main() { cli.Main(new(app)) }

var (
	errFilesChanged  = errors.New("files were rewritten")
	errRewriteFailed = errors.New("files could not be rewritten")
)

type app struct {
	mode po.Mode
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.Var(&a.mode, "add-location", "How to write location comments: `file` or never (default from configuration, then file).")
}

func (a *app) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	mode := a.mode
	if mode == "" {
		cfg, err := config.Load(".")
		if err != nil {
			return err
		}
		if mode, err = po.ParseMode(cfg.AddLocation); err != nil {
			return fmt.Errorf("%w: %v", cli.ErrInvalidArgs, err)
		}
	}

	var changed, failed int
	for _, path := range env.Args {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := po.RewriteFile(path, mode)
		if err != nil {
			logger.Error(ctx, "failed to rewrite file: "+err.Error(), logger.Path(path))
			failed++
			continue
		}
		if ok {
			fmt.Fprintf(env.Stdout, "Fixing %s\n", path)
			changed++
		}
	}

	switch {
	case failed > 0:
		return cli.Quiet(errRewriteFailed)
	case changed > 0:
		return cli.Quiet(errFilesChanged)
	}
	return nil
}
