// Package edit implements the edit transaction engine (§4.5): a
// record-then-classify mutator API over a Document, with fast paths for
// pure updates/deletes/no-op-inserts and a general path that computes
// invalidated parents before applying mutations.
package edit

import (
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/resolve"
	"github.com/ritamzico/truth/internal/statement"
)

// opKind distinguishes the three mutator calls (§4.5).
type opKind int

const (
	opInsert opKind = iota
	opDelete
	opUpdate
)

type op struct {
	kind  opKind
	at    int
	count int // opDelete only
	text  string
}

// Mutator records delete/insert/update calls for one transaction; nothing
// is applied until the mutator function returns (§4.5).
type Mutator struct {
	ops []op
}

// Delete records the removal of count statements starting at index at.
func (m *Mutator) Delete(at, count int) { m.ops = append(m.ops, op{kind: opDelete, at: at, count: count}) }

// Insert records inserting text (one or more "\n"-joined lines) before the
// statement currently at index at (or at end-of-document if at ==
// len(statements)).
func (m *Mutator) Insert(text string, at int) { m.ops = append(m.ops, op{kind: opInsert, at: at, text: text}) }

// Update records replacing the statement at index at with text.
func (m *Mutator) Update(text string, at int) { m.ops = append(m.ops, op{kind: opUpdate, at: at, text: text}) }

// Sink receives the cause events a transaction produces. Implemented by the
// program facade, which owns the typed cause.Bus instances (§6, §9).
type Sink interface {
	Invalidate(doc *document.Document, statements []*statement.Statement, indices []int)
	Revalidate(doc *document.Document, statements []*statement.Statement, indices []int)
	EditComplete(doc *document.Document)
	FaultChange(added, removed []fault.Fault)
}

// Engine applies transactions to documents sharing one program-scoped
// statement parser, cause sink, and reference loader.
type Engine struct {
	Parser *statement.Parser
	Sink   Sink
	Loader resolve.Loader
}

// New returns an Engine wired to the given collaborators.
func New(parser *statement.Parser, sink Sink, loader resolve.Loader) *Engine {
	return &Engine{Parser: parser, Sink: sink, Loader: loader}
}

// Edit runs one transaction against doc. Reentrant calls on the same
// document (mutatorFn calling Edit again, directly or indirectly) fail with
// a DoubleTransaction contract-violation error; no state is mutated in that
// case (§7, §9).
func (e *Engine) Edit(doc *document.Document, mutatorFn func(m *Mutator)) error {
	if doc.InEdit {
		return oops.Code("DoubleTransaction").Errorf("edit transaction already in progress on this document")
	}

	doc.InEdit = true
	defer func() { doc.InEdit = false }()

	before := fault.NewSet(collectFaults(doc))

	m := &Mutator{}
	mutatorFn(m)

	if len(m.ops) == 0 {
		e.Sink.EditComplete(doc)
		return nil
	}

	if !e.tryFastPath(doc, m.ops) {
		e.generalPath(doc, m.ops)
	}

	e.Sink.EditComplete(doc)
	doc.Version++

	after := fault.NewSet(collectFaults(doc))
	added, removed := fault.Diff(before, after)
	if len(added) > 0 || len(removed) > 0 {
		e.Sink.FaultChange(added, removed)
	}

	return nil
}

func collectFaults(doc *document.Document) []fault.Fault {
	var out []fault.Fault
	for _, st := range doc.Statements {
		out = append(out, st.Faults...)
	}
	return out
}

func homogeneous(ops []op) (opKind, bool) {
	if len(ops) == 0 {
		return 0, false
	}
	k := ops[0].kind
	for _, o := range ops[1:] {
		if o.kind != k {
			return 0, false
		}
	}
	return k, true
}

// tryFastPath attempts the three §4.5 fast paths; returns false if none
// apply (the caller must fall back to the general path).
func (e *Engine) tryFastPath(doc *document.Document, ops []op) bool {
	kind, ok := homogeneous(ops)
	if !ok {
		return false
	}
	switch kind {
	case opUpdate:
		return e.fastPureUpdate(doc, ops)
	case opDelete:
		return e.fastPureDeleteLeaves(doc, ops)
	case opInsert:
		return e.fastPureNoopInsert(doc, ops)
	default:
		return false
	}
}

// fastPureUpdate implements §4.5 fast path 1.
func (e *Engine) fastPureUpdate(doc *document.Document, ops []op) bool {
	sorted := append([]op(nil), ops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].at < sorted[j].at })

	byAt := make(map[int]op)
	order := make([]int, 0, len(sorted))
	for _, o := range sorted {
		if _, seen := byAt[o.at]; !seen {
			order = append(order, o.at)
		}
		byAt[o.at] = o // keep last
	}

	type pair struct {
		at       int
		old, new *statement.Statement
	}
	var pairs []pair
	for _, at := range order {
		if at < 0 || at >= len(doc.Statements) {
			return false
		}
		o := byAt[at]
		oldSt := doc.Statements[at]
		newSt := e.Parser.ParseLine(o.text)
		sameIndent := oldSt.Indent == newSt.Indent
		bothNoop := oldSt.IsNoop() && newSt.IsNoop()
		if !sameIndent && !bothNoop {
			return false
		}
		pairs = append(pairs, pair{at: at, old: oldSt, new: newSt})
	}

	var oldInvolved, newInvolved []*statement.Statement
	var indices []int
	for _, p := range pairs {
		if !p.old.IsNoop() || !p.new.IsNoop() {
			oldInvolved = append(oldInvolved, p.old)
			newInvolved = append(newInvolved, p.new)
			indices = append(indices, p.at)
		}
	}

	if len(indices) > 0 {
		e.Sink.Invalidate(doc, oldInvolved, indices)
	}

	for _, p := range pairs {
		p.new.Line = p.at
		doc.Statements[p.at] = p.new
	}

	if len(indices) > 0 {
		e.Sink.Revalidate(doc, newInvolved, indices)
	}

	var deletedURI, addedURI []*statement.Statement
	for _, p := range pairs {
		if p.old.HasUri() {
			deletedURI = append(deletedURI, p.old)
		}
		if p.new.HasUri() {
			addedURI = append(addedURI, p.new)
		}
	}
	if len(deletedURI) > 0 || len(addedURI) > 0 {
		resolve.Resolve(doc, deletedURI, addedURI, e.Loader)
	}

	return true
}

// fastPureDeleteLeaves implements §4.5 fast path 2.
func (e *Engine) fastPureDeleteLeaves(doc *document.Document, ops []op) bool {
	sorted := append([]op(nil), ops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].at > sorted[j].at })

	type rng struct{ start, end int } // [start,end)
	var ranges []rng
	for _, o := range sorted {
		if o.at < 0 || o.count <= 0 || o.at+o.count > len(doc.Statements) {
			return false
		}
		for idx := o.at; idx < o.at+o.count; idx++ {
			if doc.HasDescendants(idx) {
				return false
			}
		}
		ranges = append(ranges, rng{o.at, o.at + o.count})
	}

	var oldStatements []*statement.Statement
	var indices []int
	for _, r := range ranges {
		for idx := r.start; idx < r.end; idx++ {
			st := doc.Statements[idx]
			if !st.IsNoop() {
				oldStatements = append(oldStatements, st)
				indices = append(indices, idx)
			}
		}
	}
	if len(indices) > 0 {
		e.Sink.Invalidate(doc, oldStatements, indices)
	}

	var deletedURI []*statement.Statement
	for _, r := range ranges {
		for idx := r.start; idx < r.end; idx++ {
			doc.Statements[idx].Dispose()
			if doc.Statements[idx].HasUri() {
				deletedURI = append(deletedURI, doc.Statements[idx])
			}
		}
		doc.Statements = append(doc.Statements[:r.start], doc.Statements[r.end:]...)
	}
	renumber(doc)

	if len(indices) > 0 {
		e.Sink.Revalidate(doc, nil, nil)
	}

	if len(deletedURI) > 0 {
		resolve.Resolve(doc, deletedURI, nil, e.Loader)
	}

	return true
}

// fastPureNoopInsert implements §4.5 fast path 3.
func (e *Engine) fastPureNoopInsert(doc *document.Document, ops []op) bool {
	type parsed struct {
		at    int
		lines []*statement.Statement
	}
	var batches []parsed
	for _, o := range ops {
		if o.at < 0 || o.at > len(doc.Statements) {
			return false
		}
		lines := e.parseLines(o.text)
		for _, l := range lines {
			if !l.IsNoop() {
				return false
			}
		}
		batches = append(batches, parsed{at: o.at, lines: lines})
	}

	sort.SliceStable(batches, func(i, j int) bool { return batches[i].at > batches[j].at })
	for _, b := range batches {
		tail := append([]*statement.Statement(nil), doc.Statements[b.at:]...)
		doc.Statements = append(doc.Statements[:b.at], append(b.lines, tail...)...)
	}
	renumber(doc)
	return true
}

func (e *Engine) parseLines(text string) []*statement.Statement {
	lines := splitLines(text)
	out := make([]*statement.Statement, len(lines))
	for i, l := range lines {
		out[i] = e.Parser.ParseLine(l)
	}
	return out
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func renumber(doc *document.Document) {
	for i, st := range doc.Statements {
		st.Line = i
	}
}
