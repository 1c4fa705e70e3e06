// Package template renders file paths and playlist entries from item
// attributes. Templates contain {scope.field[:format]} placeholders over a
// closed field registry per scope; unknown fields render empty so optional
// attributes degrade gracefully. Syntax errors are reported when the
// template is parsed, before any download starts.
package template

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Scope names understood by every template. Callers may add extra
// namespaces at parse time.
const (
	ScopeItem     = "item"
	ScopeAlbum    = "album"
	ScopePlaylist = "playlist"
)

type placeholder struct {
	scope  string
	field  string
	format string
}

type part struct {
	literal string
	ph      *placeholder
}

// Template is a parsed path template, safe for concurrent rendering.
type Template struct {
	raw    string
	parts  []part
	scopes map[string]bool
}

// Parse validates and compiles a template. extraScopes names additional
// caller-supplied namespaces; a placeholder with any other scope is a parse
// error.
func Parse(raw string, extraScopes ...string) (*Template, error) {
	known := map[string]bool{ScopeItem: true, ScopeAlbum: true, ScopePlaylist: true}
	for _, s := range extraScopes {
		known[s] = true
	}

	t := &Template{raw: raw, scopes: make(map[string]bool)}
	var literal strings.Builder
	for i := 0; i < len(raw); {
		switch raw[i] {
		case '{':
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("template %q: unmatched '{' at offset %d", raw, i)
			}
			ph, err := parsePlaceholder(raw[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", raw, err)
			}
			if !known[ph.scope] {
				return nil, fmt.Errorf("template %q: unknown scope %q", raw, ph.scope)
			}
			if literal.Len() > 0 {
				t.parts = append(t.parts, part{literal: literal.String()})
				literal.Reset()
			}
			t.parts = append(t.parts, part{ph: ph})
			t.scopes[ph.scope] = true
			i += end + 1
		case '}':
			return nil, fmt.Errorf("template %q: unmatched '}' at offset %d", raw, i)
		default:
			literal.WriteByte(raw[i])
			i++
		}
	}
	if literal.Len() > 0 {
		t.parts = append(t.parts, part{literal: literal.String()})
	}
	return t, nil
}

func parsePlaceholder(body string) (*placeholder, error) {
	if body == "" {
		return nil, fmt.Errorf("empty placeholder")
	}
	field := body
	format := ""
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		field, format = body[:idx], body[idx+1:]
	}
	dot := strings.IndexByte(field, '.')
	if dot <= 0 || dot == len(field)-1 {
		return nil, fmt.Errorf("placeholder %q: expected scope.field", body)
	}
	return &placeholder{
		scope:  field[:dot],
		field:  field[dot+1:],
		format: format,
	}, nil
}

// References reports whether any placeholder uses the given scope. The
// coordinator uses this to decide whether playlist tracks need their album
// attributes fetched.
func (t *Template) References(scope string) bool {
	return t.scopes[scope]
}

// String returns the original template text.
func (t *Template) String() string {
	return t.raw
}

// Render resolves every placeholder against values, then splits the result
// on '/' and sanitizes each segment independently. Segments that end up
// empty are dropped, collapsing adjacent separators.
func (t *Template) Render(values Values) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.ph == nil {
			b.WriteString(p.literal)
			continue
		}
		b.WriteString(renderValue(values.lookup(p.ph.scope, p.ph.field), p.ph.format))
	}

	segments := strings.Split(b.String(), "/")
	clean := segments[:0]
	for _, segment := range segments {
		segment = sanitizeSegment(segment)
		if segment != "" {
			clean = append(clean, segment)
		}
	}
	return filepath.Join(clean...)
}

func renderValue(v value, format string) string {
	switch v.kind {
	case kindNone:
		return ""
	case kindBool:
		return renderBool(v.boolean, format)
	case kindInt:
		return renderInt(v.number, format)
	case kindDate:
		return renderDate(v.str, format)
	default:
		return v.str
	}
}

// renderBool implements the three-part user format: {field:True} emits the
// label when true, {field:Y:N} picks a label per state.
func renderBool(b bool, format string) string {
	if format == "" {
		if b {
			return "true"
		}
		return ""
	}
	trueLabel, falseLabel, _ := strings.Cut(format, ":")
	if b {
		return trueLabel
	}
	return falseLabel
}

// renderInt understands zero-padding width specifiers such as 02d.
func renderInt(n int, format string) string {
	if n == 0 {
		return ""
	}
	if strings.HasSuffix(format, "d") {
		if width, err := strconv.Atoi(strings.TrimSuffix(format, "d")); err == nil && width > 0 {
			return fmt.Sprintf("%0*d", width, n)
		}
	}
	return strconv.Itoa(n)
}

// strftime-style tokens accepted in date formats.
var dateTokens = [][2]string{
	{"%Y", "2006"},
	{"%y", "06"},
	{"%m", "01"},
	{"%d", "02"},
	{"%H", "15"},
	{"%M", "04"},
	{"%S", "05"},
}

// renderDate formats a YYYY-MM-DD value with an strftime-style specifier,
// or emits it verbatim when no format is given.
func renderDate(date, format string) string {
	if date == "" {
		return ""
	}
	if format == "" {
		return date
	}
	parsed, err := parseDate(date)
	if err != nil {
		return date
	}
	layout := format
	for _, token := range dateTokens {
		layout = strings.ReplaceAll(layout, token[0], token[1])
	}
	return parsed.Format(layout)
}

// invalidPathChars are stripped from every rendered segment.
const invalidPathChars = `<>:"\|?*`

// sanitizeSegment strips filesystem-hostile characters and trims the
// leading/trailing whitespace and dots that Windows rejects.
func sanitizeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if r < 0x20 || strings.ContainsRune(invalidPathChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.Trim(b.String(), ". ")
	// Collapse runs of spaces left behind by stripped characters.
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return cleaned
}
