package edit

import (
	"sort"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/resolve"
	"github.com/ritamzico/truth/internal/statement"
)

// generalPath implements §4.5's general path: compute invalidated parents
// before mutating, apply the recorded ops, then revalidate the survivors.
func (e *Engine) generalPath(doc *document.Document, ops []op) {
	invalidated, wholeDocument := e.computeInvalidatedParents(doc, ops)

	var survivingOld []*statement.Statement
	var indices []int
	if !wholeDocument {
		type entry struct {
			st  *statement.Statement
			idx int
		}
		var entries []entry
		for p := range invalidated {
			entries = append(entries, entry{p, p.Line})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
		for _, en := range entries {
			survivingOld = append(survivingOld, en.st)
			indices = append(indices, en.idx)
		}
	}

	if wholeDocument || len(survivingOld) > 0 {
		e.Sink.Invalidate(doc, survivingOld, indices)
	}

	deletedOutright, updated, created := e.applyMixed(doc, ops)

	// Drop any invalidated parent that was itself deleted outright from
	// the revalidate set (§4.5 general path, step 3). A parent that was
	// merely updated is revalidated via its replacement object instead.
	deletedSet := make(map[*statement.Statement]bool, len(deletedOutright))
	for _, st := range deletedOutright {
		deletedSet[st] = true
	}

	var survivingNew []*statement.Statement
	var survivingIdx []int
	for _, old := range survivingOld {
		if deletedSet[old] {
			continue
		}
		replacement := old
		if repl, ok := updated[old]; ok {
			replacement = repl
		}
		survivingNew = append(survivingNew, replacement)
		survivingIdx = append(survivingIdx, replacement.Line)
	}

	if wholeDocument {
		e.Sink.Revalidate(doc, nil, nil)
	} else if len(survivingOld) > 0 {
		e.Sink.Revalidate(doc, survivingNew, survivingIdx)
	}

	var deletedURI, addedURI []*statement.Statement
	for _, st := range deletedOutright {
		if st.HasUri() {
			deletedURI = append(deletedURI, st)
		}
	}
	for old := range updated {
		if old.HasUri() {
			deletedURI = append(deletedURI, old)
		}
	}
	for _, st := range created {
		if st.HasUri() {
			addedURI = append(addedURI, st)
		}
	}
	if len(deletedURI) > 0 || len(addedURI) > 0 {
		resolve.Resolve(doc, deletedURI, addedURI, e.Loader)
	}
}

// computeInvalidatedParents implements §4.5 general path's invalidated-
// parent computation and pruning.
func (e *Engine) computeInvalidatedParents(doc *document.Document, ops []op) (map[*statement.Statement]bool, bool) {
	invalidated := make(map[*statement.Statement]bool)
	wholeDocument := false

	for _, o := range ops {
		switch o.kind {
		case opDelete:
			for idx := o.at; idx < o.at+o.count && idx < len(doc.Statements); idx++ {
				if doc.Statements[idx].IsNoop() {
					continue
				}
				parent, ok := doc.GetParent(idx)
				if !ok {
					wholeDocument = true
					continue
				}
				invalidated[parent] = true
			}
		case opInsert, opUpdate:
			lines := e.parseLines(o.text)
			allNoop := true
			for _, l := range lines {
				if !l.IsNoop() {
					allNoop = false
					break
				}
			}
			if allNoop {
				continue
			}
			indent := 0
			if len(lines) > 0 {
				indent = lines[0].Indent
			}
			parent, ok := doc.GetParentFromPosition(o.at, indent)
			if !ok {
				wholeDocument = true
				continue
			}
			invalidated[parent] = true
		}
	}

	if wholeDocument {
		return map[*statement.Statement]bool{}, true
	}

	// Prune descendants: if p's ancestry already contains another
	// invalidated parent, drop p.
	pruned := make(map[*statement.Statement]bool, len(invalidated))
	for p := range invalidated {
		isDescendant := false
		for _, anc := range doc.GetAncestry(p.Line) {
			if invalidated[anc] {
				isDescendant = true
				break
			}
		}
		if !isDescendant {
			pruned[p] = true
		}
	}

	return pruned, false
}

// applyMixed applies a batch of possibly-heterogeneous ops, all addressed
// against the document's original (pre-transaction) indices. deletedOutright
// holds statements removed by a delete op (disposed); updated maps each
// update-replaced statement to its replacement; created holds every new
// statement object introduced (by insert or update).
func (e *Engine) applyMixed(doc *document.Document, ops []op) (deletedOutright []*statement.Statement, updated map[*statement.Statement]*statement.Statement, created []*statement.Statement) {
	original := doc.Statements
	updated = make(map[*statement.Statement]*statement.Statement)

	deleteAt := make(map[int]int)
	updateAt := make(map[int]*statement.Statement)
	insertsAt := make(map[int][]*statement.Statement)

	for _, o := range ops {
		switch o.kind {
		case opDelete:
			deleteAt[o.at] = o.count
		case opUpdate:
			lines := e.parseLines(o.text)
			if len(lines) > 0 {
				updateAt[o.at] = lines[0]
			}
		case opInsert:
			insertsAt[o.at] = append(insertsAt[o.at], e.parseLines(o.text)...)
		}
	}

	var out []*statement.Statement
	i := 0
	for i <= len(original) {
		if ins, ok := insertsAt[i]; ok {
			out = append(out, ins...)
			created = append(created, ins...)
		}
		if i == len(original) {
			break
		}
		if cnt, ok := deleteAt[i]; ok {
			for k := i; k < i+cnt && k < len(original); k++ {
				original[k].Dispose()
				deletedOutright = append(deletedOutright, original[k])
			}
			i += cnt
			continue
		}
		if repl, ok := updateAt[i]; ok {
			out = append(out, repl)
			created = append(created, repl)
			updated[original[i]] = repl
			i++
			continue
		}
		out = append(out, original[i])
		i++
	}

	doc.Statements = out
	renumber(doc)
	return deletedOutright, updated, created
}
