// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package pysyntax parses Python source into a small, parser-agnostic view of
// its syntax tree.
//
// Callers match on node kinds, fields and literal values; the tree-sitter
// grammar behind it is an implementation detail.
package pysyntax

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	// ErrNotUTF8 is returned for source that is not valid UTF-8.
	ErrNotUTF8 = errors.New("source is not valid UTF-8")
	// ErrSyntax is returned for source that does not parse cleanly.
	ErrSyntax = errors.New("syntax error")
)

// Node kinds used by callers.
const (
	KindModule         = "module"
	KindExprStatement  = "expression_statement"
	KindAssignment     = "assignment"
	KindCall           = "call"
	KindAttribute      = "attribute"
	KindSubscript      = "subscript"
	KindIdentifier     = "identifier"
	KindImportFrom     = "import_from_statement"
	KindWildcardImport = "wildcard_import"
	KindRelativeImport = "relative_import"
	KindDottedName     = "dotted_name"
	KindImportPrefix   = "import_prefix"
	KindComment        = "comment"
	KindKeywordArg     = "keyword_argument"
)

// File is a parsed Python source file. It must be closed after use, and nodes
// obtained from it are invalid afterwards.
type File struct {
	tree *sitter.Tree
	src  []byte
}

// Parse parses src. It returns an error wrapping [ErrNotUTF8] or [ErrSyntax]
// if src cannot be used.
func Parse(ctx context.Context, src []byte) (*File, error) {
	if !utf8.Valid(src) {
		return nil, ErrNotUTF8
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing Python: %w", err)
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		line := 0
		if root != nil {
			line = firstErrorLine(root)
		}
		tree.Close()
		return nil, fmt.Errorf("%w near line %d", ErrSyntax, line)
	}
	return &File{tree: tree, src: src}, nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.HasError() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

// Close releases the syntax tree.
func (f *File) Close() { f.tree.Close() }

// Root returns the module node.
func (f *File) Root() Node { return Node{n: f.tree.RootNode(), src: f.src} }

// Node is a node of a parsed file. The zero Node represents an absent node.
type Node struct {
	n   *sitter.Node
	src []byte
}

// IsZero reports whether the node is absent.
func (n Node) IsZero() bool { return n.n == nil }

// Kind returns the grammar type of the node, or "" for an absent node.
func (n Node) Kind() string {
	if n.n == nil {
		return ""
	}
	return n.n.Type()
}

// Is reports whether the node is present and has the given kind.
func (n Node) Is(kind string) bool { return n.Kind() == kind }

// Field returns the child stored under a grammar field name, such as "left"
// and "right" of an assignment or "function" and "arguments" of a call.
func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	return n.wrap(n.n.ChildByFieldName(name))
}

// Children returns the named children of the node, without comments.
func (n Node) Children() []Node {
	if n.n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	children := make([]Node, 0, count)
	for i := range count {
		c := n.n.NamedChild(i)
		if c == nil || c.Type() == KindComment {
			continue
		}
		children = append(children, n.wrap(c))
	}
	return children
}

// Text returns the source text of the node.
func (n Node) Text() string {
	if n.n == nil {
		return ""
	}
	return n.n.Content(n.src)
}

// Line returns the 1-based line the node starts at.
func (n Node) Line() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Row) + 1
}

// Walk visits n and its descendants in document order. It stops as soon as
// visit returns false and reports whether the walk ran to completion.
func (n Node) Walk(visit func(Node) bool) bool {
	if n.n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, c := range n.Children() {
		if !c.Walk(visit) {
			return false
		}
	}
	return true
}

func (n Node) wrap(c *sitter.Node) Node {
	if c == nil {
		return Node{}
	}
	return Node{n: c, src: n.src}
}
