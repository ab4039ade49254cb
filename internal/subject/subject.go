// Package subject implements the Subject tagged union (Term/Pattern/Uri/
// void) and per-program Term interning (§3).
package subject

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ritamzico/truth/internal/pattern"
	"github.com/ritamzico/truth/internal/uri"
)

// Term is an interned identifier. Two Terms with the same spelling and
// list-marker are always the same pointer, once interned through the same
// Interner.
type Term struct {
	ID       uint64
	Spelling string
	IsList   bool
}

// Interner interns Terms scoped to one Program (§9: "Shared interning of
// Term is per-program").
type Interner struct {
	table  map[string]*Term
	nextID uint64
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{table: make(map[string]*Term)}
}

const listOperator = "..."

// Intern returns the canonical Term for spelling, creating it on first use.
// spelling should include the trailing list-operator suffix if present;
// Intern strips it and sets IsList accordingly.
func (in *Interner) Intern(spelling string) *Term {
	isList := strings.HasSuffix(spelling, listOperator)
	base := spelling
	if isList {
		base = strings.TrimSuffix(spelling, listOperator)
	}
	key := base
	if isList {
		key += listOperator
	}
	if t, ok := in.table[key]; ok {
		return t
	}
	in.nextID++
	t := &Term{ID: in.nextID, Spelling: base, IsList: isList}
	in.table[key] = t
	return t
}

// Lookup returns the existing Term for spelling without creating it.
func (in *Interner) Lookup(spelling string) (*Term, bool) {
	isList := strings.HasSuffix(spelling, listOperator)
	base := spelling
	if isList {
		base = strings.TrimSuffix(spelling, listOperator)
	}
	key := base
	if isList {
		key += listOperator
	}
	t, ok := in.table[key]
	return t, ok
}

// Kind tags a Subject variant.
type Kind int

const (
	KindTerm Kind = iota
	KindPattern
	KindUri
	KindVoid
)

// Subject is the tagged union described in §3: Term, Pattern, Uri, or void.
type Subject struct {
	kind    Kind
	term    *Term
	pattern *pattern.Pattern
	uri     uri.Uri
}

// Void is the subject of a statement that has a joint but no declarations
// (a vacuous statement, §3 invariant v).
var Void = Subject{kind: KindVoid}

// NewTerm wraps an interned Term as a Subject.
func NewTerm(t *Term) Subject { return Subject{kind: KindTerm, term: t} }

// NewPattern wraps a parsed Pattern as a Subject.
func NewPattern(p *pattern.Pattern) Subject { return Subject{kind: KindPattern, pattern: p} }

// NewUri wraps a Uri as a Subject.
func NewUri(u uri.Uri) Subject { return Subject{kind: KindUri, uri: u} }

// Kind returns the Subject's variant.
func (s Subject) Kind() Kind { return s.kind }

// Term returns the underlying Term, or nil if Kind() != KindTerm.
func (s Subject) Term() *Term { return s.term }

// Pattern returns the underlying Pattern, or nil if Kind() != KindPattern.
func (s Subject) Pattern() *pattern.Pattern { return s.pattern }

// Uri returns the underlying Uri; meaningful only if Kind() == KindUri.
func (s Subject) Uri() uri.Uri { return s.uri }

// Equal reports whether two subjects have the same variant and payload
// (§3: "Two subjects are equal iff same variant and same payload").
func (s Subject) Equal(other Subject) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindTerm:
		return s.term == other.term
	case KindPattern:
		if s.pattern == nil || other.pattern == nil {
			return s.pattern == other.pattern
		}
		return s.pattern.Total == other.pattern.Total && s.pattern.CRC == other.pattern.CRC
	case KindUri:
		return s.uri.Equal(other.uri)
	case KindVoid:
		return true
	default:
		return false
	}
}

// Key returns a string uniquely identifying s's variant and payload, stable
// for the lifetime of the owning Interner. Used by the phrase graph as a map
// key component, since Subject itself embeds a non-comparable Uri.
func (s Subject) Key() string {
	switch s.kind {
	case KindTerm:
		if s.term == nil {
			return "term:<nil>"
		}
		return "term:" + strconv.FormatUint(s.term.ID, 10)
	case KindPattern:
		if s.pattern == nil {
			return "pattern:<nil>"
		}
		return fmt.Sprintf("pattern:%d:%v", s.pattern.CRC, s.pattern.Total)
	case KindUri:
		return "uri:" + s.uri.StoreString()
	case KindVoid:
		return "void"
	default:
		return "unknown"
	}
}

// String renders a human-readable form, primarily for debugging/tests.
func (s Subject) String() string {
	switch s.kind {
	case KindTerm:
		if s.term == nil {
			return "<nil term>"
		}
		if s.term.IsList {
			return s.term.Spelling + listOperator
		}
		return s.term.Spelling
	case KindPattern:
		return "/" + s.pattern.Source + "/"
	case KindUri:
		return s.uri.StoreString()
	case KindVoid:
		return "void"
	default:
		return "<unknown subject>"
	}
}
