// Package result implements the tagged-union answer type an explain query
// evaluates to: one Kind per question a host can ask (FAULTS OF/TREE OF/
// TYPES OF), each rendering itself for the CLI the same way the teacher's
// query results did.
package result

import (
	"fmt"
	"strings"
)

// Kind tags a Result variant.
type Kind int

const (
	FaultsResultKind Kind = iota
	TreeResultKind
	TypesResultKind
)

// Result is implemented by every answer an explain query can produce.
type Result interface {
	Kind() Kind
	String() string
}

// FaultsResult answers "FAULTS OF <uri>": one rendered line per fault, in
// document order.
type FaultsResult struct {
	Lines []string
}

func (r FaultsResult) Kind() Kind { return FaultsResultKind }

func (r FaultsResult) String() string {
	if len(r.Lines) == 0 {
		return "(no faults)"
	}
	return strings.Join(r.Lines, "\n")
}

// TreeResult answers "TREE OF <uri>": the document's reconstructed source
// text, indentation preserved.
type TreeResult struct {
	Text string
}

func (r TreeResult) Kind() Kind { return TreeResultKind }

func (r TreeResult) String() string { return r.Text }

// TypesResult answers "TYPES OF <uri>": the document's root-level declared
// types.
type TypesResult struct {
	Types []string
}

func (r TypesResult) Kind() Kind { return TypesResultKind }

func (r TypesResult) String() string {
	if len(r.Types) == 0 {
		return "(no root types declared)"
	}
	var b strings.Builder
	for i, t := range r.Types {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, t)
	}
	return b.String()
}
