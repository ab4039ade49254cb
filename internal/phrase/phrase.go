// Package phrase implements the phrase graph (§4.6): a trie keyed by
// subject and homograph clarifier, built from declaration spans as
// statements are parsed, and consulted for reference resolution and
// outbound-fork queries.
package phrase

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
)

// forwardKey identifies one outbound edge from a Phrase: the subject it is
// keyed on plus the clarifier key distinguishing homographs (§4.6).
type forwardKey struct {
	subjectKey   string
	clarifierKey string
}

// Phrase is one node of the phrase trie. The root Phrase of a document has
// Parent == nil, Length == 0, and a void Terminal.
type Phrase struct {
	Parent *Phrase

	// Terminal is the subject this phrase was reached by (the last
	// component of its path from the root). Meaningless for the root.
	Terminal subject.Subject

	// Length is the number of components from the root to this phrase,
	// i.e. the depth of the trie node.
	Length int

	// Clarifiers are the annotation terms of the statement that declared
	// Terminal for this hop, used to disambiguate
	// homographs reached via the same Terminal subject (§4.6).
	Clarifiers []*subject.Term

	// ClarifierKey is the canonical, sorted-by-term-ID join of Clarifiers'
	// spellings, used as the second component of forwardKey.
	ClarifierKey string

	// forwardings maps (subject, clarifier) pairs reachable in one hop from
	// this phrase to the child Phrase they lead to.
	forwardings map[forwardKey]*Phrase

	// InflatingSpans is the set of declaration spans currently keeping this
	// phrase inflated (alive). A phrase with zero inflating spans and zero
	// non-empty forwardings is deflated and removed from its parent.
	InflatingSpans map[*statement.Span]bool

	// Hypothetical marks a phrase synthesized to stand in for a path hop
	// that isn't actually present — by FromPathComponents walking past a
	// miss — never inflated by a real
	// declaration and never registered into a parent's forwardings (§4.6:
	// "peeking never inflates").
	Hypothetical bool
}

// NewRoot returns a fresh root phrase for one document.
func NewRoot() *Phrase {
	return &Phrase{
		Terminal:       subject.Void,
		forwardings:    make(map[forwardKey]*Phrase),
		InflatingSpans: make(map[*statement.Span]bool),
	}
}

// ClarifierKeyFor computes the canonical clarifier key for a set of
// clarifying terms: sorted by term ID (interning order), comma-joined
// spellings (§4.6).
func ClarifierKeyFor(clarifiers []*subject.Term) string {
	if len(clarifiers) == 0 {
		return ""
	}
	sorted := slices.Clone(clarifiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = t.Spelling
	}
	return strings.Join(parts, ",")
}

// Peek returns every child phrase reachable from p via subj, across all
// clarifier homographs, without creating or inflating anything (§4.6:
// "peek(subject)").
func (p *Phrase) Peek(subj subject.Subject) []*Phrase {
	key := subj.Key()
	var out []*Phrase
	for fk, child := range p.forwardings {
		if fk.subjectKey == key {
			out = append(out, child)
		}
	}
	return out
}

// PeekClarified returns the single child phrase reachable from p via subj
// disambiguated by clarifierKey, if any (§4.6: "peek(subject, clarifier_key)").
func (p *Phrase) PeekClarified(subj subject.Subject, clarifierKey string) (*Phrase, bool) {
	child, ok := p.forwardings[forwardKey{subjectKey: subj.Key(), clarifierKey: clarifierKey}]
	return child, ok
}

// createRecursive inflates (creating as needed) the phrase reached from p by
// following subj with the given clarifiers, attributing span as one of the
// inflating spans of the terminal phrase (§4.6: "create_recursive").
func (p *Phrase) createRecursive(subj subject.Subject, clarifiers []*subject.Term, span *statement.Span) *Phrase {
	clarifierKey := ClarifierKeyFor(clarifiers)
	fk := forwardKey{subjectKey: subj.Key(), clarifierKey: clarifierKey}
	child, ok := p.forwardings[fk]
	if !ok {
		child = &Phrase{
			Parent:         p,
			Terminal:       subj,
			Length:         p.Length + 1,
			Clarifiers:     slices.Clone(clarifiers),
			ClarifierKey:   clarifierKey,
			forwardings:    make(map[forwardKey]*Phrase),
			InflatingSpans: make(map[*statement.Span]bool),
		}
		p.forwardings[fk] = child
	}
	child.Hypothetical = false
	child.InflatingSpans[span] = true
	return child
}

// CreateRecursive is the exported entry point the program facade uses when
// a document's declaration span is first parsed into the trie: it walks the
// path from root to leaf, creating every intermediate phrase as needed, and
// returns the leaf (the phrase that corresponds to the full declaration
// path). clarifiers holds one clarifier set per hop of path — the
// annotations of the statement that declared that hop's own subject, not
// the leaf's — so a hop already inflated under its declaring statement's
// clarifiers is reused rather than duplicated under a different one's
// (§4.6).
func CreateRecursive(root *Phrase, path []subject.Subject, clarifiers [][]*subject.Term, span *statement.Span) *Phrase {
	cur := root
	for i, subj := range path {
		var hop []*subject.Term
		if i < len(clarifiers) {
			hop = clarifiers[i]
		}
		cur = cur.createRecursive(subj, hop, span)
	}
	return cur
}

// DeleteRecursive removes span's inflation from every phrase along path
// (CreateRecursive adds span to each hop) and deflates (removes) any phrase along the path, from the leaf
// upward, that is left with no inflating spans and no remaining non-empty
// forwardings (§4.6: "delete_recursive"). clarifiers is per-hop, matching
// CreateRecursive.
func DeleteRecursive(root *Phrase, path []subject.Subject, clarifiers [][]*subject.Term, span *statement.Span) {
	chain := []*Phrase{root}
	cur := root
	for i, subj := range path {
		var hop []*subject.Term
		if i < len(clarifiers) {
			hop = clarifiers[i]
		}
		child, ok := cur.PeekClarified(subj, ClarifierKeyFor(hop))
		if !ok {
			return
		}
		chain = append(chain, child)
		cur = child
	}

	for _, node := range chain[1:] {
		delete(node.InflatingSpans, span)
	}

	for i := len(chain) - 1; i >= 1; i-- {
		node := chain[i]
		parent := chain[i-1]
		if len(node.InflatingSpans) != 0 || len(node.forwardings) != 0 {
			break
		}
		for fk, child := range parent.forwardings {
			if child == node {
				delete(parent.forwardings, fk)
				break
			}
		}
	}
}

// IsInflated reports whether p is kept alive by at least one declaration
// span or at least one non-empty child.
func (p *Phrase) IsInflated() bool {
	return len(p.InflatingSpans) != 0 || len(p.forwardings) != 0
}

// Ancestors returns p's ancestor chain starting from p's immediate parent up
// to (and including) the root, i.e. reverse path order.
func (p *Phrase) Ancestors() []*Phrase {
	var out []*Phrase
	for cur := p.Parent; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Fork is the result of an outbound-reference query: the set of phrases one
// hop away from Origin via Via, considering both Origin's own ancestor
// chain within its document and the roots of every document in its
// document's dependency closure (§4.6).
type Fork struct {
	Origin     *Phrase
	Via        subject.Subject
	Successors []*Phrase
}

// ComputeFork answers the outbound-reference query for origin via subj:
// peek subj across origin itself, each of origin's ancestors (nearest
// first), and every phrase in foreignRoots (the roots of documents in the
// dependency closure, supplied by the caller since that traversal is
// document-graph-level, not phrase-level). Results are deduplicated and
// order-stable by first occurrence.
func ComputeFork(origin *Phrase, subj subject.Subject, foreignRoots []*Phrase) Fork {
	seen := make(map[*Phrase]bool)
	var successors []*Phrase

	collect := func(p *Phrase) {
		for _, child := range p.Peek(subj) {
			if !seen[child] {
				seen[child] = true
				successors = append(successors, child)
			}
		}
	}

	collect(origin)
	for _, anc := range origin.Ancestors() {
		collect(anc)
	}
	for _, root := range foreignRoots {
		collect(root)
	}

	return Fork{Origin: origin, Via: subj, Successors: successors}
}

// PathComponents returns the full root-to-p path of subjects, root excluded.
func (p *Phrase) PathComponents() []subject.Subject {
	chain := p.Ancestors()
	out := make([]subject.Subject, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Terminal)
	}
	out = append(out, p.Terminal)
	return out
}

// hypothetical returns a transient child of parent standing in for a path
// hop that is not actually present in the trie. It is never written into
// parent.forwardings, so it vanishes once the caller lets go of it (§4.6).
func hypothetical(parent *Phrase, subj subject.Subject, clarifierKey string) *Phrase {
	return &Phrase{
		Parent:         parent,
		Terminal:       subj,
		Length:         parent.Length + 1,
		ClarifierKey:   clarifierKey,
		forwardings:    make(map[forwardKey]*Phrase),
		InflatingSpans: make(map[*statement.Span]bool),
		Hypothetical:   true,
	}
}

// FromPathComponents walks root following path, one hop per clarifierKeys
// entry, without inflating anything. A hop with no exact match is stood in
// for by a transient hypothetical phrase so the walk continues rather than
// failing outright; a non-root hop whose subject resolves to more than one
// phrase (by subject alone, ignoring clarifier) is ambiguous and fails the
// whole walk (§4.6: "from_path_components").
func FromPathComponents(root *Phrase, path []subject.Subject, clarifierKeys []string) (*Phrase, bool) {
	cur := root
	for i, subj := range path {
		ck := ""
		if i < len(clarifierKeys) {
			ck = clarifierKeys[i]
		}
		if child, ok := cur.PeekClarified(subj, ck); ok {
			cur = child
			continue
		}
		if i > 0 {
			if matches := cur.Peek(subj); len(matches) > 1 {
				return nil, false
			}
		}
		cur = hypothetical(cur, subj, ck)
	}
	return cur, true
}

// Snapshot returns a defensive copy of p's forwardings, keyed by a stable
// string (subjectKey+"|"+clarifierKey), for diagnostic/inspection use.
func (p *Phrase) Snapshot() map[string]*Phrase {
	out := make(map[string]*Phrase, len(p.forwardings))
	for fk, child := range maps.Clone(p.forwardings) {
		out[fk.subjectKey+"|"+fk.clarifierKey] = child
	}
	return out
}
