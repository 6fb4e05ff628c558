// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package django

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/djangohooks/logger"
	"go.astrophena.name/djangohooks/pysyntax"
	"go.astrophena.name/djangohooks/syncx"
)

// Conditional is the value of names bound inside if, try, with or loop
// statements, which cannot be evaluated without running the module.
const Conditional Expr = "<conditional>"

// StaticLoader reads settings by evaluating the top-level statements of the
// settings module without running it. Literal assignments bind their value,
// other assignments bind an [Expr], and "from module import *" or
// "from module import name" pull in bindings of other project modules.
//
// It is safe to reuse a StaticLoader; parsed modules are cached.
type StaticLoader struct {
	// PythonPath lists extra import roots. Relative entries are resolved
	// against the project folder, which is always searched first.
	PythonPath []string

	modules syncx.Map[string, *parsedModule]
}

// Load resolves ref within projectDir and parses it. The module is evaluated
// on first lookup.
func (l *StaticLoader) Load(ctx context.Context, projectDir string, ref Reference) (Settings, error) {
	roots := l.roots(projectDir)
	mod, err := l.module(ctx, roots, ref.Module)
	if err != nil {
		return nil, err
	}
	return &staticSettings{loader: l, roots: roots, mod: mod}, nil
}

func (l *StaticLoader) roots(projectDir string) []string {
	roots := []string{projectDir}
	for _, p := range l.PythonPath {
		if !filepath.IsAbs(p) {
			p = filepath.Join(projectDir, p)
		}
		roots = append(roots, p)
	}
	return roots
}

type parsedModule struct {
	mod *module
	err error
}

// module returns the parsed module with the given dotted name.
func (l *StaticLoader) module(ctx context.Context, roots []string, name string) (*module, error) {
	path, isPkg, err := resolveModule(roots, name)
	if err != nil {
		return nil, err
	}
	pm := l.modules.LoadOrCompute(path, func() *parsedModule {
		mod, err := parseModule(ctx, path, name, isPkg)
		return &parsedModule{mod: mod, err: err}
	})
	return pm.mod, pm.err
}

func resolveModule(roots []string, name string) (path string, isPkg bool, err error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return "", false, fmt.Errorf("%w: invalid module name %q", ErrModuleNotFound, name)
	}
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, root := range roots {
		candidates := []struct {
			path  string
			isPkg bool
		}{
			{filepath.Join(root, rel+".py"), false},
			{filepath.Join(root, rel, "__init__.py"), true},
		}
		for _, c := range candidates {
			info, err := os.Stat(c.path)
			if err == nil && info.Mode().IsRegular() {
				return c.path, c.isPkg, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
				return "", false, err
			}
		}
	}
	return "", false, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// module is the statically evaluable part of a Python module.
type module struct {
	name  string
	path  string
	isPkg bool
	stmts []binding
}

// binding is a top-level statement that binds names.
type binding struct {
	// name is the bound name; empty for star imports.
	name string
	// value is the bound value when from is empty.
	value Value
	// from is the absolute name of the module imported from.
	from string
	// attr is the imported name; empty for star imports.
	attr string
	// conditional marks statements nested in control flow.
	conditional bool
	line        int
}

func parseModule(ctx context.Context, path, name string, isPkg bool) (*module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := pysyntax.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	m := &module{name: name, path: path, isPkg: isPkg}
	for _, stmt := range f.Root().Children() {
		m.collect(stmt, false)
	}
	return m, nil
}

// collect records the bindings made by a statement.
func (m *module) collect(stmt pysyntax.Node, conditional bool) {
	switch stmt.Kind() {
	case pysyntax.KindExprStatement:
		for _, expr := range stmt.Children() {
			switch expr.Kind() {
			case pysyntax.KindAssignment:
				m.assignment(expr, conditional)
			case "augmented_assignment":
				m.bindTarget(expr.Field("left"), Expr(expr.Text()), expr.Line(), conditional)
			}
		}
	case pysyntax.KindImportFrom:
		m.importFrom(stmt, conditional)
	case "function_definition", "class_definition", "decorated_definition":
		// Bodies run later, if at all; the definition binds a name.
		if name := definitionName(stmt); name != "" {
			m.stmts = append(m.stmts, binding{name: name, value: Expr("<" + stmt.Kind() + ">"), conditional: conditional, line: stmt.Line()})
		}
	case "if_statement", "try_statement", "with_statement", "for_statement", "while_statement",
		"block", "else_clause", "elif_clause", "except_clause", "finally_clause", "match_statement", "case_clause":
		for _, c := range stmt.Children() {
			m.collect(c, true)
		}
	}
}

func definitionName(n pysyntax.Node) string {
	if n.Is("decorated_definition") {
		n = n.Field("definition")
	}
	return n.Field("name").Text()
}

func (m *module) assignment(n pysyntax.Node, conditional bool) {
	targets := []pysyntax.Node{n.Field("left")}
	value := n.Field("right")
	for value.Is(pysyntax.KindAssignment) {
		targets = append(targets, value.Field("left"))
		value = value.Field("right")
	}
	if value.IsZero() {
		// Bare annotation, like "DEBUG: bool".
		return
	}
	v, ok := value.Literal()
	if !ok {
		v = Expr(value.Text())
	}
	for _, t := range targets {
		m.bindTarget(t, v, n.Line(), conditional)
	}
}

func (m *module) bindTarget(target pysyntax.Node, v Value, line int, conditional bool) {
	switch target.Kind() {
	case pysyntax.KindIdentifier:
		m.stmts = append(m.stmts, binding{name: target.Text(), value: v, conditional: conditional, line: line})
	case "pattern_list", "tuple_pattern", "list_pattern", "parenthesized_expression":
		// Unpacking: the individual values are not tracked.
		for _, c := range target.Children() {
			m.bindTarget(c, Expr(target.Text()), line, true)
		}
	}
}

func (m *module) importFrom(n pysyntax.Node, conditional bool) {
	from, ok := m.absoluteImport(n.Field("module_name"))
	if !ok {
		return
	}
	// The first child is the module name, the rest are the imported names.
	children := n.Children()
	for _, c := range children[1:] {
		switch {
		case c.Is(pysyntax.KindWildcardImport):
			m.stmts = append(m.stmts, binding{from: from, conditional: conditional, line: n.Line()})
		case c.Is(pysyntax.KindDottedName):
			m.stmts = append(m.stmts, binding{name: c.Text(), from: from, attr: c.Text(), conditional: conditional, line: n.Line()})
		case c.Is("aliased_import"):
			attr := c.Field("name").Text()
			m.stmts = append(m.stmts, binding{name: c.Field("alias").Text(), from: from, attr: attr, conditional: conditional, line: n.Line()})
		}
	}
}

// absoluteImport resolves the module of a from-import against m.
func (m *module) absoluteImport(n pysyntax.Node) (string, bool) {
	switch n.Kind() {
	case pysyntax.KindDottedName:
		return n.Text(), true
	case pysyntax.KindRelativeImport:
	default:
		return "", false
	}

	var (
		level int
		rest  string
	)
	for _, c := range n.Children() {
		switch c.Kind() {
		case pysyntax.KindImportPrefix:
			level = strings.Count(c.Text(), ".")
		case pysyntax.KindDottedName:
			rest = c.Text()
		}
	}

	parts := strings.Split(m.name, ".")
	if !m.isPkg {
		parts = parts[:len(parts)-1]
	}
	if level-1 > len(parts) {
		return "", false
	}
	parts = parts[:len(parts)-(level-1)]
	if rest != "" {
		parts = append(parts, rest)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "."), true
}

type staticSettings struct {
	loader *StaticLoader
	roots  []string
	mod    *module
	vals   syncx.Lazy[map[string]Value]
}

func (s *staticSettings) Lookup(ctx context.Context, name string) (Value, bool, error) {
	vals, err := s.vals.GetErr(func() (map[string]Value, error) {
		return s.loader.evaluate(ctx, s.roots, s.mod, make(map[string]bool))
	})
	if err != nil {
		return nil, false, err
	}
	v, ok := vals[name]
	return v, ok, nil
}

// evaluate returns the names bound by mod after running its top level.
func (l *StaticLoader) evaluate(ctx context.Context, roots []string, mod *module, active map[string]bool) (map[string]Value, error) {
	if active[mod.name] {
		return nil, fmt.Errorf("import cycle through module %s", mod.name)
	}
	active[mod.name] = true
	defer delete(active, mod.name)

	vals := make(map[string]Value)
	for _, b := range mod.stmts {
		if b.from == "" {
			vals[b.name] = b.value
			if b.conditional {
				vals[b.name] = Conditional
			}
			continue
		}

		other, err := l.module(ctx, roots, b.from)
		var imported map[string]Value
		if err == nil {
			imported, err = l.evaluate(ctx, roots, other, active)
		}
		if err != nil {
			if errors.Is(err, ErrModuleNotFound) {
				switch {
				case b.conditional:
					// Typically "try: from .local import * except ImportError: pass".
					logger.Debug(ctx, "skipping optional import of "+b.from, logger.Path(mod.path))
					continue
				case isExternal(roots, b.from):
					if b.attr != "" {
						vals[b.name] = Expr(b.from + "." + b.attr)
					}
					continue
				}
			}
			return nil, fmt.Errorf("%s:%d: importing %s: %w", mod.path, b.line, b.from, err)
		}

		if b.attr == "" {
			for name, v := range imported {
				if strings.HasPrefix(name, "_") {
					continue
				}
				vals[name] = v
				if b.conditional {
					vals[name] = Conditional
				}
			}
			continue
		}
		v, ok := imported[b.attr]
		if !ok {
			// Submodule imports and names bound at runtime.
			v = Expr(b.from + "." + b.attr)
		}
		vals[b.name] = v
		if b.conditional {
			vals[b.name] = Conditional
		}
	}
	return vals, nil
}

// isExternal reports whether the top-level package of a module is outside
// the project, like django or pathlib.
// Namespace packages without __init__.py count as part of the project.
func isExternal(roots []string, name string) bool {
	top, _, _ := strings.Cut(name, ".")
	for _, root := range roots {
		if info, err := os.Stat(filepath.Join(root, top)); err == nil && info.IsDir() {
			return false
		}
		if _, err := os.Stat(filepath.Join(root, top+".py")); err == nil {
			return false
		}
	}
	return true
}
