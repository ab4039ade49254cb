// Package document implements the Document model (§3, §4.4): an ordered
// statement buffer with an indentation-based tree superimposed on it, the
// URI-statement/dependency bookkeeping the reference resolver maintains,
// and the per-document phrase trie root.
package document

import (
	"strings"

	"github.com/ritamzico/truth/internal/phrase"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/uri"
)

// Document is one parsed source buffer (§3).
type Document struct {
	// ID is assigned by the owning Program at creation time; opaque here.
	ID string

	// SelfURI is the URI this document was loaded from, if any. Its
	// protocol drives the InsecureResourceReference check (§4.7).
	SelfURI uri.Uri
	HasURI  bool

	Statements []*statement.Statement

	// UriStatements is the subsequence of Statements whose declaration is a
	// Uri, in document order. Owned wholesale by the reference resolver.
	UriStatements []*statement.Statement

	// Dependencies/Dependents maintain the symmetric back-link invariant
	// (§3); owned wholesale by the reference resolver.
	Dependencies []*Document
	Dependents   []*Document

	// Version is bumped at the end of every transaction that mutated the
	// statement buffer (§3).
	Version uint64

	// InEdit is the reentrancy guard (§4.5, §9).
	InEdit bool

	// Root is the zero-length root of this document's phrase trie (§3).
	Root *phrase.Phrase
}

// New returns an empty Document with a fresh phrase root.
func New(id string) *Document {
	return &Document{
		ID:   id,
		Root: phrase.NewRoot(),
	}
}

// ToString reconstructs the original source text by joining every
// statement's source_text with "\n" (§8 testable property 4). keepOriginal
// is accepted for interface symmetry with the spec's API; this
// implementation always reconstructs from source_text, which is preserved
// verbatim by the parser regardless of keepOriginal.
func (d *Document) ToString(keepOriginal bool) string {
	_ = keepOriginal
	parts := make([]string, len(d.Statements))
	for i, st := range d.Statements {
		parts[i] = st.SourceText
	}
	return strings.Join(parts, "\n")
}

// GetAncestry walks backwards from i-1, collecting the chain of enclosing
// statements from root-most to immediate parent (§4.4).
func (d *Document) GetAncestry(i int) []*statement.Statement {
	if i < 0 || i >= len(d.Statements) {
		return nil
	}
	threshold := d.Statements[i].Indent
	var chain []*statement.Statement
	for j := i - 1; j >= 0; j-- {
		st := d.Statements[j]
		if st.IsNoop() {
			continue
		}
		if st.Indent < threshold {
			chain = append(chain, st)
			threshold = st.Indent
			if threshold == 0 {
				break
			}
		}
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}

// GetParent returns the immediate enclosing statement of i, or ok=false if
// i's parent is the document itself (§4.4).
func (d *Document) GetParent(i int) (parent *statement.Statement, ok bool) {
	ancestry := d.GetAncestry(i)
	if len(ancestry) == 0 {
		return nil, false
	}
	return ancestry[len(ancestry)-1], true
}

// GetParentFromPosition runs the same backward scan as GetParent but for an
// imaginary statement at (virtualLine, virtualIndent), used by the edit
// engine's general path to classify insert/update calls (§4.5).
func (d *Document) GetParentFromPosition(virtualLine, virtualIndent int) (parent *statement.Statement, ok bool) {
	start := virtualLine - 1
	if start >= len(d.Statements) {
		start = len(d.Statements) - 1
	}
	for j := start; j >= 0; j-- {
		st := d.Statements[j]
		if st.IsNoop() {
			continue
		}
		if st.Indent < virtualIndent {
			return st, true
		}
	}
	return nil, false
}

// sameParent reports whether indices a and b share the same enclosing
// statement (or both are top-level).
func (d *Document) sameParent(a, b int) bool {
	pa, hasA := d.GetParent(a)
	pb, hasB := d.GetParent(b)
	if hasA != hasB {
		return false
	}
	if !hasA {
		return true
	}
	return pa == pb
}

// GetSiblings returns the indices of every non-noop statement sharing i's
// immediate parent, in document order, including i itself.
func (d *Document) GetSiblings(i int) []int {
	if i < 0 || i >= len(d.Statements) {
		return nil
	}
	var out []int
	for j := range d.Statements {
		if d.Statements[j].IsNoop() {
			continue
		}
		if d.sameParent(i, j) {
			out = append(out, j)
		}
	}
	return out
}

// GetChildren returns the indices of i's direct children: the non-noop
// statements in i's descendant block whose indent equals the lowest indent
// encountered in that block, tolerating irregular indentation (§4.4).
func (d *Document) GetChildren(i int) []int {
	if i < 0 || i >= len(d.Statements) {
		return nil
	}
	parentIndent := d.Statements[i].Indent
	var block []int
	minIndent := -1
	for j := i + 1; j < len(d.Statements); j++ {
		st := d.Statements[j]
		if st.IsNoop() {
			continue
		}
		if st.Indent <= parentIndent {
			break
		}
		block = append(block, j)
		if minIndent == -1 || st.Indent < minIndent {
			minIndent = st.Indent
		}
	}
	var children []int
	for _, j := range block {
		if d.Statements[j].Indent == minIndent {
			children = append(children, j)
		}
	}
	return children
}

// HasDescendants reports whether any statement strictly after i, before the
// next statement at or below i's indent, exists.
func (d *Document) HasDescendants(i int) bool {
	if i < 0 || i >= len(d.Statements) {
		return false
	}
	parentIndent := d.Statements[i].Indent
	for j := i + 1; j < len(d.Statements); j++ {
		st := d.Statements[j]
		if st.IsNoop() {
			continue
		}
		return st.Indent > parentIndent
	}
	return false
}

// EachDescendant visits every statement in i's descendant block (not just
// direct children), in document order, stopping early if visit returns
// false. If includeInitial, i itself is visited first.
func (d *Document) EachDescendant(i int, includeInitial bool, visit func(idx int) bool) {
	if i < 0 || i >= len(d.Statements) {
		return
	}
	if includeInitial {
		if !visit(i) {
			return
		}
	}
	parentIndent := d.Statements[i].Indent
	for j := i + 1; j < len(d.Statements); j++ {
		st := d.Statements[j]
		if st.IsNoop() {
			continue
		}
		if st.Indent <= parentIndent {
			break
		}
		if !visit(j) {
			return
		}
	}
}

// GetNotes collects the indices of comment lines immediately preceding i,
// at i's own indent, skipping whitespace lines, stopping at the first
// non-comment non-whitespace statement (§4.4). Returned in source order.
func (d *Document) GetNotes(i int) []int {
	if i < 0 || i >= len(d.Statements) {
		return nil
	}
	indent := d.Statements[i].Indent
	var notes []int
	for j := i - 1; j >= 0; j-- {
		st := d.Statements[j]
		if st.IsWhitespace() {
			continue
		}
		if st.IsComment() && st.Indent == indent {
			notes = append(notes, j)
			continue
		}
		break
	}
	for l, r := 0, len(notes)-1; l < r; l, r = l+1, r-1 {
		notes[l], notes[r] = notes[r], notes[l]
	}
	return notes
}
