// Package fault implements the fault substrate (§4.8 of the spec): a
// closed catalogue of typed fault kinds, each carrying a source span and a
// severity, plus the add/remove delta bookkeeping the program facade
// exposes to observers.
package fault

import "fmt"

// Severity classifies how a fault affects downstream type analysis.
type Severity int

const (
	Hint Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Hint:
		return "hint"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Code is a member of the closed fault catalogue.
type Code int

const (
	TabsAndSpaces Code = iota
	StatementBeginsWithComma
	StatementBeginsWithEllipsis
	StatementBeginsWithEscapedSpace
	StatementContainsOnlyEscapeCharacter
	DuplicateDeclaration
	ListIntrinsicExtendingList
	PatternInvalid
	PatternWithoutAnnotation
	PatternCanMatchEmpty
	PatternPartialWithCombinator
	DuplicateIdentifierInInfix
	SelfReferentialInfixType
	ListOperatorInInfixIdentifier
	PopulationInfixMultipleDeclarations
	PortabilityInfixMultipleDefinitions
	InfixHoleUsesListOperator
	DuplicateReference
	InsecureResourceReference
	UnresolvedResource
	CircularResourceReference
)

type catalogueEntry struct {
	name     string
	severity Severity
}

var catalogue = map[Code]catalogueEntry{
	TabsAndSpaces:                        {"TabsAndSpaces", Warning},
	StatementBeginsWithComma:             {"StatementBeginsWithComma", Error},
	StatementBeginsWithEllipsis:          {"StatementBeginsWithEllipsis", Error},
	StatementBeginsWithEscapedSpace:      {"StatementBeginsWithEscapedSpace", Error},
	StatementContainsOnlyEscapeCharacter: {"StatementContainsOnlyEscapeCharacter", Error},
	DuplicateDeclaration:                 {"DuplicateDeclaration", Error},
	ListIntrinsicExtendingList:           {"ListIntrinsicExtendingList", Error},
	PatternInvalid:                       {"PatternInvalid", Error},
	PatternWithoutAnnotation:             {"PatternWithoutAnnotation", Error},
	PatternCanMatchEmpty:                 {"PatternCanMatchEmpty", Warning},
	PatternPartialWithCombinator:         {"PatternPartialWithCombinator", Error},
	DuplicateIdentifierInInfix:           {"DuplicateIdentifierInInfix", Error},
	SelfReferentialInfixType:             {"SelfReferentialInfixType", Error},
	ListOperatorInInfixIdentifier:        {"ListOperatorInInfixIdentifier", Error},
	PopulationInfixMultipleDeclarations:  {"PopulationInfixMultipleDeclarations", Error},
	PortabilityInfixMultipleDefinitions:  {"PortabilityInfixMultipleDefinitions", Error},
	InfixHoleUsesListOperator:            {"InfixHoleUsesListOperator", Error},
	DuplicateReference:                   {"DuplicateReference", Error},
	InsecureResourceReference:            {"InsecureResourceReference", Warning},
	UnresolvedResource:                   {"UnresolvedResource", Error},
	CircularResourceReference:            {"CircularResourceReference", Error},
}

// Name returns the catalogue name of a code, e.g. "TabsAndSpaces".
func (c Code) Name() string {
	if e, ok := catalogue[c]; ok {
		return e.name
	}
	return "Unknown"
}

// DefaultSeverity returns the catalogue severity for a code.
func (c Code) DefaultSeverity() Severity {
	if e, ok := catalogue[c]; ok {
		return e.severity
	}
	return Error
}

// SourceKind distinguishes the three fault-source variants of §3.
type SourceKind int

const (
	KindStatement SourceKind = iota
	KindSpan
	KindInfixSpan
)

// Source is implemented by Statement, Span, and InfixSpan. FaultRange returns
// the 0-based [start,end) byte offsets this fault should highlight for the
// given code; the fault package adds the 1-based +1 offsets per §4.8.
type Source interface {
	FaultSourceKind() SourceKind
	FaultRange(code Code) (start, end int)
}

// Fault is a value object: identity is irrelevant, equality is structural.
type Fault struct {
	Code     Code
	Severity Severity
	Message  string
	Source   Source
}

// New constructs a Fault, computing Range lazily from Source at render time
// so the same Fault remains valid if Source's underlying span is narrowed
// by later parsing steps within the same construction pass.
func New(code Code, source Source, message string) Fault {
	return Fault{
		Code:     code,
		Severity: code.DefaultSeverity(),
		Message:  message,
		Source:   source,
	}
}

// Newf is New with a fmt.Sprintf-formatted message.
func Newf(code Code, source Source, format string, args ...any) Fault {
	return New(code, source, fmt.Sprintf(format, args...))
}

// Range computes the 1-based [startCol, endCol) range per §4.8: the
// source's 0-based half-open offsets, each shifted by one.
func (f Fault) Range() (start, end int) {
	s, e := f.Source.FaultRange(f.Code)
	return s + 1, e + 1
}

// Render produces the canonical single-line rendering (§6):
// "<message> (<uri-store-form-or-empty> Line <1-based>, Col <startCol>-<endCol>)"
func (f Fault) Render(uriStoreForm string, line int) string {
	start, end := f.Range()
	var loc string
	switch {
	case uriStoreForm == "" && start == end:
		loc = fmt.Sprintf("Line %d", line+1)
	case uriStoreForm == "":
		loc = fmt.Sprintf("Line %d, Col %d-%d", line+1, start, end)
	case start == end:
		loc = fmt.Sprintf("%s Line %d", uriStoreForm, line+1)
	default:
		loc = fmt.Sprintf("%s Line %d, Col %d-%d", uriStoreForm, line+1, start, end)
	}
	return fmt.Sprintf("%s (%s)", f.Message, loc)
}

// Set is an unordered collection of faults compared by structural equality,
// used to compute the symmetric difference the program facade publishes as
// CauseFaultChange (§4.8, §6).
type Set map[key]Fault

type key struct {
	code    Code
	message string
	source  Source
}

// NewSet builds a Set from a slice of Faults.
func NewSet(faults []Fault) Set {
	s := make(Set, len(faults))
	for _, f := range faults {
		s[key{f.Code, f.Message, f.Source}] = f
	}
	return s
}

// Diff computes (added, removed) such that old ∪ added == new ∪ removed and
// old ∩ new is shared. Used after every transaction (§4.8).
func Diff(old, new Set) (added, removed []Fault) {
	for k, f := range new {
		if _, ok := old[k]; !ok {
			added = append(added, f)
		}
	}
	for k, f := range old {
		if _, ok := new[k]; !ok {
			removed = append(removed, f)
		}
	}
	return added, removed
}

// ToSlice returns the faults in the set in unspecified order.
func (s Set) ToSlice() []Fault {
	out := make([]Fault, 0, len(s))
	for _, f := range s {
		out = append(out, f)
	}
	return out
}
