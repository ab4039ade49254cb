// Package resolve implements the inter-document reference resolver (§4.7):
// given a document's URI-statement deltas from one edit transaction, it
// resolves each added URI to a target Document, detects duplicates,
// insecure protocol downgrades, load failures, and dependency cycles, and
// rewrites the document's dependencies/dependents/uri_statements lists.
package resolve

import (
	"sort"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

// Loader resolves a Uri to a target Document, loading and parsing it on
// first reference. It is implemented by the program facade, which owns the
// document registry and the pluggable URI reader (§5, §6).
type Loader interface {
	GetDocumentByURI(u uri.Uri) (*document.Document, bool)
	AddDocumentFromURI(u uri.Uri) (*document.Document, error)
}

// Resolve runs the §4.7 algorithm for one transaction's URI-statement
// deltas against doc, mutating doc.UriStatements/Dependencies/Dependents
// in place and appending any resolution faults directly to the offending
// statements' Faults lists (resolution faults join parse faults in the
// statement-owned fault set, §3).
func Resolve(doc *document.Document, deleted, added []*statement.Statement, loader Loader) {
	existing := subtractByIdentity(doc.UriStatements, deleted)

	proposed := make([]*statement.Statement, 0, len(existing)+len(added))
	proposed = append(proposed, existing...)
	proposed = append(proposed, added...)
	sort.SliceStable(proposed, func(i, j int) bool {
		return proposed[i].Line > proposed[j].Line
	})

	seenStoreForms := make(map[string]bool, len(proposed))
	for _, st := range proposed {
		u, ok := statementURI(st)
		if !ok {
			continue
		}
		form := u.StoreString()
		if seenStoreForms[form] {
			addFault(st, fault.DuplicateReference, "duplicate reference to "+form)
		}
		seenStoreForms[form] = true
	}

	for _, st := range added {
		u, ok := statementURI(st)
		if !ok {
			continue
		}

		if isInsecureDowngrade(doc, u) {
			addFault(st, fault.InsecureResourceReference, "insecure reference to file:// from an http(s) document")
		}

		target, err := resolveTarget(doc, u, loader)
		if err != nil {
			addFault(st, fault.UnresolvedResource, err.Error())
			continue
		}

		if wouldCycle(doc, target) {
			addFault(st, fault.CircularResourceReference, "circular reference to "+u.StoreString())
			continue
		}
	}

	newDeps := make([]*document.Document, 0, len(doc.Dependencies))
	newDepsSeen := make(map[*document.Document]bool)
	for _, st := range proposed {
		if hasFaultBlockingDependency(st) {
			continue
		}
		u, ok := statementURI(st)
		if !ok {
			continue
		}
		target, ok := loader.GetDocumentByURI(u)
		if !ok {
			continue
		}
		if !newDepsSeen[target] {
			newDepsSeen[target] = true
			newDeps = append(newDeps, target)
		}
	}

	oldDeps := doc.Dependencies
	oldDepsSet := make(map[*document.Document]bool, len(oldDeps))
	for _, d := range oldDeps {
		oldDepsSet[d] = true
	}
	newDepsSet := newDepsSeen

	for _, d := range newDeps {
		if !oldDepsSet[d] {
			d.Dependents = append(d.Dependents, doc)
		}
	}
	for _, d := range oldDeps {
		if !newDepsSet[d] {
			d.Dependents = removeByIdentity(d.Dependents, doc)
		}
	}

	doc.Dependencies = newDeps
	doc.UriStatements = proposed
}

func statementURI(st *statement.Statement) (uri.Uri, bool) {
	sub, ok := st.UriSubject()
	if !ok || sub.Kind() != subject.KindUri {
		return uri.Uri{}, false
	}
	return sub.Uri(), true
}

func isInsecureDowngrade(doc *document.Document, u uri.Uri) bool {
	if !doc.HasURI {
		return false
	}
	selfProto := doc.SelfURI.Protocol
	return (selfProto == uri.HTTP || selfProto == uri.HTTPS) && u.Protocol == uri.File
}

func resolveTarget(doc *document.Document, u uri.Uri, loader Loader) (*document.Document, error) {
	if d, ok := loader.GetDocumentByURI(u); ok {
		return d, nil
	}
	return loader.AddDocumentFromURI(u)
}

func hasFaultBlockingDependency(st *statement.Statement) bool {
	for _, f := range st.Faults {
		switch f.Code {
		case fault.UnresolvedResource, fault.CircularResourceReference, fault.DuplicateReference:
			return true
		}
	}
	return false
}

// wouldCycle reports whether adding from->target would create a cycle: a
// depth-first search from target through its existing dependencies that
// reaches from (§4.7 step 4, grounded on the teacher's visited-set DFS
// pattern for reachability).
func wouldCycle(from, target *document.Document) bool {
	if from == target {
		return true
	}
	visited := make(map[*document.Document]bool)
	var dfs func(d *document.Document) bool
	dfs = func(d *document.Document) bool {
		if d == from {
			return true
		}
		if visited[d] {
			return false
		}
		visited[d] = true
		for _, dep := range d.Dependencies {
			if dfs(dep) {
				return true
			}
		}
		return false
	}
	return dfs(target)
}

func addFault(st *statement.Statement, code fault.Code, message string) {
	var source fault.Source
	if len(st.AllDeclarations) > 0 {
		source = st.AllDeclarations[0]
	} else {
		source = st
	}
	st.Faults = append(st.Faults, fault.New(code, source, message))
}

func subtractByIdentity(from, minus []*statement.Statement) []*statement.Statement {
	if len(minus) == 0 {
		return append([]*statement.Statement(nil), from...)
	}
	remove := make(map[*statement.Statement]bool, len(minus))
	for _, st := range minus {
		remove[st] = true
	}
	out := make([]*statement.Statement, 0, len(from))
	for _, st := range from {
		if !remove[st] {
			out = append(out, st)
		}
	}
	return out
}

func removeByIdentity(docs []*document.Document, target *document.Document) []*document.Document {
	out := make([]*document.Document, 0, len(docs))
	for _, d := range docs {
		if d != target {
			out = append(out, d)
		}
	}
	return out
}
