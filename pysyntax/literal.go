// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pysyntax

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Literal returns the value of a constant expression: bool for True and
// False, nil for None, int64, float64 or string. ok is false for anything
// else, including f-strings with interpolations, bytes, containers and names.
func (n Node) Literal() (v any, ok bool) {
	switch n.Kind() {
	case "true":
		return true, true
	case "false":
		return false, true
	case "none":
		return nil, true
	case "integer":
		return parseInt(n.Text())
	case "float":
		return parseFloat(n.Text())
	case "string", "concatenated_string":
		s, ok := n.String()
		return s, ok
	case "parenthesized_expression":
		children := n.Children()
		if len(children) != 1 {
			return nil, false
		}
		return children[0].Literal()
	case "unary_operator":
		op := n.Field("operator").Text()
		arg, ok := n.Field("argument").Literal()
		if !ok {
			return nil, false
		}
		switch x := arg.(type) {
		case int64:
			switch op {
			case "-":
				return -x, true
			case "+":
				return x, true
			}
		case float64:
			switch op {
			case "-":
				return -x, true
			case "+":
				return x, true
			}
		}
	}
	return nil, false
}

// String returns the value of a string literal or of implicitly concatenated
// string literals.
func (n Node) String() (string, bool) {
	switch n.Kind() {
	case "string":
		for _, c := range n.Children() {
			if c.Is("interpolation") {
				return "", false
			}
		}
		return decodeString(n.Text())
	case "concatenated_string":
		var sb strings.Builder
		for _, c := range n.Children() {
			s, ok := c.String()
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	}
	return "", false
}

func parseInt(text string) (any, bool) {
	if strings.ContainsAny(text, "jJlL") {
		return nil, false
	}
	text = strings.ReplaceAll(text, "_", "")
	// Python has no legacy octal literals, except for zero itself.
	if len(text) > 1 && text[0] == '0' && !strings.ContainsAny(text[1:2], "xXoObB") && strings.Trim(text, "0") != "" {
		return nil, false
	}
	i, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, false
	}
	return i, true
}

func parseFloat(text string) (any, bool) {
	if strings.ContainsAny(text, "jJ") {
		return nil, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

// decodeString decodes the source text of a single string literal, including
// its prefix and quotes.
func decodeString(text string) (string, bool) {
	i := strings.IndexAny(text, `'"`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(text[:i])
	if strings.Contains(prefix, "b") {
		return "", false
	}
	body := text[i:]

	quote := body[:1]
	if strings.HasPrefix(body, quote+quote+quote) && len(body) >= 6 {
		quote = body[:3]
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body)
}

// unescape interprets backslash escapes the way Python does for str
// literals. Unknown escapes are kept verbatim.
func unescape(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// Line continuation.
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			r, _ := strconv.ParseUint(s[i:j], 8, 32)
			sb.WriteRune(rune(r))
			i = j - 1
		case 'x', 'u', 'U':
			size := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+size > len(s) {
				return "", false
			}
			r, err := strconv.ParseUint(s[i+1:i+1+size], 16, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return "", false
			}
			sb.WriteRune(rune(r))
			i += size
		case 'N':
			// Named Unicode characters need the Unicode name database.
			return "", false
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), true
}
