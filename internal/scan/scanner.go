// Package scan implements the line-local cursor the statement parser reads
// from: prefix peek/read, delimiter scanning, whitespace runs, and
// escape-aware grapheme reads (§4.1).
package scan

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner is a cursor over a single statement's source text. Positions are
// byte offsets into text.
type Scanner struct {
	text string
	pos  int
}

// New returns a Scanner positioned at the start of text.
func New(text string) *Scanner {
	return &Scanner{text: text}
}

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// Text returns the full source text the scanner was built from.
func (s *Scanner) Text() string { return s.text }

// More reports whether any input remains.
func (s *Scanner) More() bool {
	return s.pos < len(s.text)
}

// Peek reports whether tok occurs at the current position without
// consuming it.
func (s *Scanner) Peek(tok string) bool {
	return strings.HasPrefix(s.text[s.pos:], tok)
}

// Read advances past tok if it occurs at the current position, reporting
// whether it did.
func (s *Scanner) Read(tok string) bool {
	if !s.Peek(tok) {
		return false
	}
	s.pos += len(tok)
	return true
}

// ReadThenTerminal reads tok only if it is immediately followed by
// end-of-input.
func (s *Scanner) ReadThenTerminal(tok string) bool {
	if !s.Peek(tok) {
		return false
	}
	if s.pos+len(tok) != len(s.text) {
		return false
	}
	s.pos += len(tok)
	return true
}

// ReadUntil reads and returns all text up to (not including) the first
// occurrence of any delimiter in delims, advancing the cursor past the
// returned text but not past the delimiter. If no delimiter occurs, it
// reads to end of input.
func (s *Scanner) ReadUntil(delims ...string) string {
	rest := s.text[s.pos:]
	cut := len(rest)
	for _, d := range delims {
		if d == "" {
			continue
		}
		if idx := strings.Index(rest, d); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	s.pos += cut
	return rest[:cut]
}

// ReadWhitespace reads a run of tabs and/or spaces, returning the text and
// whether it contained both tabs and spaces mixed together.
func (s *Scanner) ReadWhitespace() (text string, mixed bool) {
	start := s.pos
	sawTab, sawSpace := false, false
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		if c == '\t' {
			sawTab = true
		} else if c == ' ' {
			sawSpace = true
		} else {
			break
		}
		s.pos++
	}
	return s.text[start:s.pos], sawTab && sawSpace
}

// Grapheme is one user-perceived character as read from source text: a
// base rune plus any combining marks, or an escape decode result.
type Grapheme struct {
	// Text is the literal text this grapheme represents. Empty when
	// BlockName is set (the grapheme names a Unicode block rather than a
	// literal character).
	Text    string
	Escaped bool
	// BlockName is non-empty when this grapheme is a \u{NAME} Unicode block
	// reference rather than a literal character.
	BlockName string
}

// IsBlockReference reports whether g names a Unicode block instead of
// standing for a literal character.
func (g Grapheme) IsBlockReference() bool {
	return g.BlockName != ""
}

const (
	listOperator = "..."
	escapeChar   = '\\'
)

// knownUnicodeBlocks is a small, illustrative registry of block names the
// \u{NAME} escape form recognizes, keyed by lower-case name.
var knownUnicodeBlocks = map[string]*unicode.RangeTable{
	"latin":      unicode.Latin,
	"greek":      unicode.Greek,
	"cyrillic":   unicode.Cyrillic,
	"han":        unicode.Han,
	"hiragana":   unicode.Hiragana,
	"katakana":   unicode.Katakana,
	"hangul":     unicode.Hangul,
	"arabic":     unicode.Arabic,
	"hebrew":     unicode.Hebrew,
	"devanagari": unicode.Devanagari,
	"thai":       unicode.Thai,
	"armenian":   unicode.Armenian,
	"georgian":   unicode.Georgian,
}

// LookupUnicodeBlock reports whether name is a registered Unicode block.
func LookupUnicodeBlock(name string) (*unicode.RangeTable, bool) {
	rt, ok := knownUnicodeBlocks[strings.ToLower(name)]
	return rt, ok
}

// ReadGrapheme reads one user-perceived character, honoring escape
// sequences and combining-mark clustering (§4.1). ok is false at
// end-of-input.
func (s *Scanner) ReadGrapheme() (Grapheme, bool) {
	if s.pos >= len(s.text) {
		return Grapheme{}, false
	}

	if s.text[s.pos] == escapeChar {
		return s.readEscape()
	}

	return s.readPlainGrapheme(), true
}

func (s *Scanner) readPlainGrapheme() Grapheme {
	start := s.pos
	r, size := utf8.DecodeRuneInString(s.text[s.pos:])
	s.pos += size

	for s.pos < len(s.text) {
		next, nsize := utf8.DecodeRuneInString(s.text[s.pos:])
		if !isCombiningMark(next) {
			break
		}
		s.pos += nsize
	}
	_ = r
	return Grapheme{Text: s.text[start:s.pos]}
}

func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Me, r)
}

// readEscape decodes the escape sequence starting at the current '\'.
func (s *Scanner) readEscape() (Grapheme, bool) {
	rest := s.text[s.pos+1:]

	if rest == "" {
		// A bare trailing backslash at end of stream is the literal backslash.
		s.pos++
		return Grapheme{Text: string(escapeChar)}, true
	}

	if strings.HasPrefix(rest, "u{") {
		if g, n, ok := s.readUnicodeEscape(rest); ok {
			s.pos += 1 + n
			return g, true
		}
	}

	switch {
	case rest[0] == ' ' || rest[0] == '\t' || rest[0] == ',':
		s.pos += 2
		return Grapheme{Text: rest[:1], Escaped: true}, true
	case rest[0] == escapeChar:
		s.pos += 2
		return Grapheme{Text: string(escapeChar), Escaped: true}, true
	case strings.HasPrefix(rest, listOperator):
		s.pos += 1 + len(listOperator)
		return Grapheme{Text: listOperator, Escaped: true}, true
	default:
		// Unrecognized escape: the backslash stands for itself; the
		// character that follows it is read as an ordinary grapheme on the
		// next call.
		s.pos++
		return Grapheme{Text: string(escapeChar)}, true
	}
}

// readUnicodeEscape parses "u{HEX}" (1-5 lowercase hex digits) or
// "u{NAME}" (registered Unicode block name) starting right after the
// backslash. n is the number of bytes consumed from rest (not including
// the backslash itself).
func (s *Scanner) readUnicodeEscape(rest string) (Grapheme, int, bool) {
	close := strings.IndexByte(rest, '}')
	if close < 0 || !strings.HasPrefix(rest, "u{") {
		return Grapheme{}, 0, false
	}
	body := rest[2:close]
	consumed := close + 1

	if isLowerHex(body) && len(body) >= 1 && len(body) <= 5 {
		v, err := strconv.ParseInt(body, 16, 32)
		if err == nil && utf8.ValidRune(rune(v)) {
			return Grapheme{Text: string(rune(v)), Escaped: true}, consumed, true
		}
	}

	if rt, ok := LookupUnicodeBlock(body); ok {
		_ = rt
		return Grapheme{BlockName: body, Escaped: true}, consumed, true
	}

	return Grapheme{}, 0, false
}

func isLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}
