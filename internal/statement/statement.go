// Package statement implements the statement parser (§4.2): turning one
// source line into a Statement carrying declarations, annotations, flags,
// and parse faults.
package statement

import (
	"strings"

	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/subject"
)

// Flags is a bit set of statement-level classification flags (§3).
type Flags uint32

const (
	FlagWhitespace Flags = 1 << iota
	FlagComment
	FlagRefresh
	FlagVacuous
	FlagCruft
	FlagDisposed
	FlagHasUri
	FlagHasPattern
	FlagHasTotalPattern
	FlagHasPartialPattern
)

// Span is a boundary [Start,End) in the owning statement's source text plus
// its parsed subject (§3).
type Span struct {
	Start, End int
	Subject    subject.Subject
	Parent     *Statement
}

// FaultSourceKind implements fault.Source.
func (s *Span) FaultSourceKind() fault.SourceKind { return fault.KindSpan }

// FaultRange implements fault.Source: a Span's range is always its own
// boundary (§4.8).
func (s *Span) FaultRange(fault.Code) (int, int) { return s.Start, s.End }

// InfixSpan is a span inside a pattern's infix hole (§4.3).
type InfixSpan struct {
	Start, End int
	Parent     *Statement
	Detail     string
}

// FaultSourceKind implements fault.Source.
func (s *InfixSpan) FaultSourceKind() fault.SourceKind { return fault.KindInfixSpan }

// FaultRange implements fault.Source: identical rule to Span (§4.8).
func (s *InfixSpan) FaultRange(fault.Code) (int, int) { return s.Start, s.End }

// Statement is one parsed source line (§3). Immutable after construction
// except for the Disposed flag.
type Statement struct {
	SourceText    string
	Indent        int
	JointPosition int // -1 if the parser never reached a joint
	Sum           string
	Line          int // current index in the owning Document; set externally

	flags Flags

	AllDeclarations []*Span
	AllAnnotations  []*Span
	CruftObjects    []fault.Source
	Faults          []fault.Fault
}

// FaultSourceKind implements fault.Source.
func (st *Statement) FaultSourceKind() fault.SourceKind { return fault.KindStatement }

// FaultRange implements fault.Source (§4.8): [indent, len(text)] normally,
// [0, indent] for TabsAndSpaces.
func (st *Statement) FaultRange(code fault.Code) (int, int) {
	if code == fault.TabsAndSpaces {
		return 0, st.Indent
	}
	return st.Indent, len(st.SourceText)
}

func (st *Statement) has(f Flags) bool  { return st.flags&f != 0 }
func (st *Statement) set(f Flags)       { st.flags |= f }
func (st *Statement) clear(f Flags)     { st.flags &^= f }

func (st *Statement) IsWhitespace() bool        { return st.has(FlagWhitespace) }
func (st *Statement) IsComment() bool           { return st.has(FlagComment) }
func (st *Statement) IsNoop() bool              { return st.IsWhitespace() || st.IsComment() }
func (st *Statement) IsVacuous() bool           { return st.has(FlagVacuous) }
func (st *Statement) IsRefresh() bool           { return st.has(FlagRefresh) }
func (st *Statement) IsCruft() bool             { return st.has(FlagCruft) }
func (st *Statement) IsDisposed() bool          { return st.has(FlagDisposed) }
func (st *Statement) HasUri() bool              { return st.has(FlagHasUri) }
func (st *Statement) HasPattern() bool          { return st.has(FlagHasPattern) }
func (st *Statement) HasTotalPattern() bool     { return st.has(FlagHasTotalPattern) }
func (st *Statement) HasPartialPattern() bool   { return st.has(FlagHasPartialPattern) }

// Dispose marks the statement disposed and clears its span back-references
// (§5, §9: "Disposal of a statement clears its span back-references").
func (st *Statement) Dispose() {
	st.set(FlagDisposed)
	for _, sp := range st.AllDeclarations {
		sp.Parent = nil
	}
	for _, sp := range st.AllAnnotations {
		sp.Parent = nil
	}
}

// DeclarationSubjects returns the subjects of all declarations, in order.
func (st *Statement) DeclarationSubjects() []subject.Subject {
	out := make([]subject.Subject, len(st.AllDeclarations))
	for i, sp := range st.AllDeclarations {
		out[i] = sp.Subject
	}
	return out
}

// AnnotationSubjects returns the subjects of all annotations, in order.
func (st *Statement) AnnotationSubjects() []subject.Subject {
	out := make([]subject.Subject, len(st.AllAnnotations))
	for i, sp := range st.AllAnnotations {
		out[i] = sp.Subject
	}
	return out
}

// AnnotationTexts returns the raw spelling of each annotation term, used
// for pattern CRC computation (§4.3).
func (st *Statement) AnnotationTexts() []string {
	out := make([]string, 0, len(st.AllAnnotations))
	for _, sp := range st.AllAnnotations {
		if sp.Subject.Kind() == subject.KindTerm {
			out = append(out, sp.Subject.Term().Spelling)
		}
	}
	return out
}

// AnnotationTerms returns the Term of each annotation whose subject is a
// Term, in order, used as a phrase's clarifying terms (§4.6).
func (st *Statement) AnnotationTerms() []*subject.Term {
	out := make([]*subject.Term, 0, len(st.AllAnnotations))
	for _, sp := range st.AllAnnotations {
		if sp.Subject.Kind() == subject.KindTerm {
			out = append(out, sp.Subject.Term())
		}
	}
	return out
}

// UriSubject returns the Uri this statement declares, if HasUri().
func (st *Statement) UriSubject() (subject.Subject, bool) {
	if !st.HasUri() || len(st.AllDeclarations) == 0 {
		return subject.Subject{}, false
	}
	return st.AllDeclarations[0].Subject, true
}

// renderableText trims trailing CR (in case of CRLF-terminated input; the
// canonical terminator is LF per §6 but tolerate a stray CR defensively).
func renderableText(s string) string {
	return strings.TrimSuffix(s, "\r")
}
