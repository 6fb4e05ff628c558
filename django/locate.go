// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package django

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.astrophena.name/djangohooks/logger"
	"go.astrophena.name/djangohooks/pysyntax"
	"go.astrophena.name/djangohooks/walk"
)

// BootstrapFiles are the files that configure the settings module, in the
// order they are searched.
var BootstrapFiles = []string{
	"wsgi.py",
	"asgi.py",
	"manage.py",
	"settings.py",
}

// Locate searches root for bootstrap files and returns the first settings
// module declared in one of them. Files are tried in [BootstrapFiles] order,
// then in lexical path order. Directories matching exclude globs are skipped
// in addition to [walk.DefaultExclude].
//
// Files that are not UTF-8 or do not parse are skipped. If no file declares
// a settings module, the error wraps [ErrSettingsNotFound].
func Locate(ctx context.Context, root string, exclude ...string) (Reference, error) {
	files, err := walk.Files(ctx, root, ".py", exclude...)
	if err != nil {
		return Reference{}, fmt.Errorf("searching %s: %w", root, err)
	}

	for _, name := range BootstrapFiles {
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return Reference{}, err
			}
			if filepath.Base(path) != name {
				continue
			}
			module, err := settingsModuleFromFile(ctx, path)
			if err != nil {
				logSkipped(ctx, path, err)
				continue
			}
			if module != "" {
				logger.Debug(ctx, "found settings module", logger.Path(path))
				return Reference{Module: module, File: path}, nil
			}
		}
	}
	return Reference{}, ErrSettingsNotFound
}

func settingsModuleFromFile(ctx context.Context, path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f, err := pysyntax.Parse(ctx, src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	module, _ := extract(f.Root())
	return module, nil
}

func logSkipped(ctx context.Context, path string, err error) {
	switch {
	case errors.Is(err, pysyntax.ErrNotUTF8):
		logger.Warn(ctx, "skipping file: non-UTF-8 content is not supported", logger.Path(path))
	case errors.Is(err, pysyntax.ErrSyntax):
		logger.Debug(ctx, "skipping file: "+err.Error(), logger.Path(path))
	default:
		logger.Warn(ctx, "skipping file: "+err.Error(), logger.Path(path))
	}
}

// ExtractSettingsModule returns the settings module declared in Python
// source. It recognizes, in document order:
//
//	os.environ.setdefault("DJANGO_SETTINGS_MODULE", "mysite.settings")
//	os.environ["DJANGO_SETTINGS_MODULE"] = "mysite.settings"
//	DJANGO_SETTINGS_MODULE = "mysite.settings"
//
// Any name works in place of os. The error wraps [pysyntax.ErrSyntax] or
// [pysyntax.ErrNotUTF8] for unusable source.
func ExtractSettingsModule(ctx context.Context, src []byte) (module string, ok bool, err error) {
	f, err := pysyntax.Parse(ctx, src)
	if err != nil {
		return "", false, err
	}
	defer f.Close()
	module, ok = extract(f.Root())
	return module, ok, nil
}

func extract(root pysyntax.Node) (module string, ok bool) {
	root.Walk(func(n pysyntax.Node) bool {
		switch n.Kind() {
		case pysyntax.KindCall:
			module, ok = matchSetdefault(n)
		case pysyntax.KindAssignment:
			module, ok = matchAssignment(n)
		}
		return !ok
	})
	return module, ok
}

// matchSetdefault matches <ns>.environ.setdefault("DJANGO_SETTINGS_MODULE", "<value>").
func matchSetdefault(call pysyntax.Node) (string, bool) {
	fn := call.Field("function")
	if !isAttribute(fn, "setdefault") || !isEnviron(fn.Field("object")) {
		return "", false
	}
	args := call.Field("arguments").Children()
	if len(args) < 2 || args[0].Is(pysyntax.KindKeywordArg) || args[1].Is(pysyntax.KindKeywordArg) {
		return "", false
	}
	if key, ok := args[0].String(); !ok || key != SettingsModuleVar {
		return "", false
	}
	return args[1].String()
}

// matchAssignment matches <ns>.environ["DJANGO_SETTINGS_MODULE"] = "<value>"
// and DJANGO_SETTINGS_MODULE = "<value>", including chained assignments.
func matchAssignment(assign pysyntax.Node) (string, bool) {
	targets := []pysyntax.Node{assign.Field("left")}
	value := assign.Field("right")
	for value.Is(pysyntax.KindAssignment) {
		targets = append(targets, value.Field("left"))
		value = value.Field("right")
	}
	for _, target := range targets {
		if isEnvironKey(target) || isName(target, SettingsModuleVar) {
			return value.String()
		}
	}
	return "", false
}

func isName(n pysyntax.Node, name string) bool {
	return n.Is(pysyntax.KindIdentifier) && n.Text() == name
}

func isAttribute(n pysyntax.Node, attr string) bool {
	return n.Is(pysyntax.KindAttribute) && isName(n.Field("attribute"), attr)
}

// isEnviron matches <ns>.environ.
func isEnviron(n pysyntax.Node) bool {
	return isAttribute(n, "environ") && n.Field("object").Is(pysyntax.KindIdentifier)
}

// isEnvironKey matches <ns>.environ["DJANGO_SETTINGS_MODULE"].
func isEnvironKey(n pysyntax.Node) bool {
	if !n.Is(pysyntax.KindSubscript) || !isEnviron(n.Field("value")) {
		return false
	}
	key, ok := n.Field("subscript").String()
	return ok && key == SettingsModuleVar
}
