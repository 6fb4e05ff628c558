// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package po normalizes location comments of gettext PO files.
//
// xgettext writes references as "#: path:line" comments, which change every
// time code moves around. Normalizing them to one "#: path" line per file,
// sorted and without line numbers, keeps translation diffs small.
package po

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

// LocationPrefix starts every location comment.
const LocationPrefix = "#: "

// Mode selects how location comments are written, mirroring the
// --add-location option of xgettext.
type Mode string

const (
	// ModeFile keeps one location line per referenced file, without line
	// numbers.
	ModeFile Mode = "file"
	// ModeNever removes location comments.
	ModeNever Mode = "never"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeFile, ModeNever:
		return m, nil
	}
	return "", fmt.Errorf("unknown location mode %q (want %q or %q)", s, ModeFile, ModeNever)
}

// String implements [flag.Value].
func (m *Mode) String() string { return string(*m) }

// Set implements [flag.Value].
func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Stats counts location lines seen and written by [Normalize].
type Stats struct {
	// In is the number of location lines read.
	In int
	// Out is the number of location lines written.
	Out int
}

// Normalize copies r to w, rewriting location comments according to mode.
// Other lines are copied byte for byte. Location lines without any names,
// like "#: ", are dropped; they still count towards [Stats.In].
func Normalize(w io.Writer, r io.Reader, mode Mode) (Stats, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return Stats{}, err
	}

	var (
		stats Stats
		br    = bufio.NewReader(r)
		bw    = bufio.NewWriter(w)
		block = make(map[string]struct{})
		eol   string // terminator of the last location line
		first string // first non-empty terminator in the block
	)

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		names := make([]string, 0, len(block))
		for name := range block {
			names = append(names, name)
		}
		slices.Sort(names)
		for i, name := range names {
			term := eol
			if term == "" && i < len(names)-1 {
				term = first
				if term == "" {
					term = "\n"
				}
			}
			if _, err := bw.WriteString(LocationPrefix + name + term); err != nil {
				return err
			}
			stats.Out++
		}
		clear(block)
		first = ""
		return nil
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, err
		}
		if line != "" {
			if strings.HasPrefix(line, LocationPrefix) {
				stats.In++
				if mode == ModeFile {
					body, term := splitEOL(line)
					for _, tok := range strings.Fields(body[len(LocationPrefix):]) {
						name, _, _ := strings.Cut(tok, ":")
						block[name] = struct{}{}
					}
					eol = term
					if first == "" {
						first = term
					}
				}
			} else {
				if ferr := flush(); ferr != nil {
					return stats, ferr
				}
				if _, werr := bw.WriteString(line); werr != nil {
					return stats, werr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, bw.Flush()
}

func splitEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// RewriteFile normalizes the file at path in place. The file is replaced
// atomically and only if its contents change.
func RewriteFile(path string, mode Mode) (changed bool, err error) {
	orig, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var buf bytes.Buffer
	if _, err := Normalize(&buf, bytes.NewReader(orig), mode); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(buf.Bytes(), orig) {
		return false, nil
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return false, err
	}
	return true, nil
}
