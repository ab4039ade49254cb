// Package truth is the Program facade (§6 "Program-level API"): it owns a
// set of Documents and their shared Term interner, drives the statement
// parser and edit-transaction engine, runs the inter-document reference
// resolver, and publishes the cause-event stream a host subscribes to.
package truth

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/ritamzico/truth/internal/cause"
	"github.com/ritamzico/truth/internal/config"
	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/edit"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/phrase"
	"github.com/ritamzico/truth/internal/resolve"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
	"github.com/ritamzico/truth/internal/urireader"
)

// Re-export the package surfaces a host needs, in the teacher's
// root-package type-alias style (see pgraph.go).
type (
	Document  = document.Document
	Statement = statement.Statement
	Subject   = subject.Subject
	Fault     = fault.Fault
	Uri       = uri.Uri
	Mutator   = edit.Mutator
	RangeEdit = edit.RangeEdit
)

// Cause event payloads (§6, §9 "generic event enum").
type (
	DocumentCreateEvent struct{ Document *document.Document }
	DocumentDeleteEvent struct{ Document *document.Document }
	DocumentUriChangeEvent struct {
		Document *document.Document
		NewURI   uri.Uri
	}
	InvalidateEvent struct {
		Document   *document.Document
		Statements []*statement.Statement
		Indices    []int
	}
	RevalidateEvent struct {
		Document   *document.Document
		Statements []*statement.Statement
		Indices    []int
	}
	EditCompleteEvent struct{ Document *document.Document }
	FaultChangeEvent  struct{ Added, Removed []fault.Fault }
)

// Program owns a set of Documents, the Term interner shared across them,
// and the cause-event buses a host subscribes to (§9 "Global program
// state": "no process-wide mutable state; each Program instance owns its
// documents and fault table").
type Program struct {
	mu sync.Mutex

	cfg      config.Config
	log      *zap.Logger
	reader   urireader.Reader
	interner *subject.Interner
	parser   *statement.Parser
	engine   *edit.Engine

	documents    map[string]*document.Document
	byURI        map[string]*document.Document
	verification []*phrase.Phrase

	onDocumentCreate    *cause.Bus[DocumentCreateEvent]
	onDocumentDelete    *cause.Bus[DocumentDeleteEvent]
	onDocumentUriChange *cause.Bus[DocumentUriChangeEvent]
	onInvalidate        *cause.Bus[InvalidateEvent]
	onRevalidate        *cause.Bus[RevalidateEvent]
	onEditComplete      *cause.Bus[EditCompleteEvent]
	onFaultChange       *cause.Bus[FaultChangeEvent]
}

// New returns an empty Program. logger may be nil (a no-op logger is used
// then); reader may be nil if the host never opens documents by URI.
func New(cfg config.Config, logger *zap.Logger, reader urireader.Reader) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	interner := subject.NewInterner()
	p := &Program{
		cfg:      cfg,
		log:      logger,
		reader:   reader,
		interner: interner,
		parser:   statement.NewParser(interner),
		documents: make(map[string]*document.Document),
		byURI:     make(map[string]*document.Document),

		onDocumentCreate:    cause.NewBus[DocumentCreateEvent](),
		onDocumentDelete:    cause.NewBus[DocumentDeleteEvent](),
		onDocumentUriChange: cause.NewBus[DocumentUriChangeEvent](),
		onInvalidate:        cause.NewBus[InvalidateEvent](),
		onRevalidate:        cause.NewBus[RevalidateEvent](),
		onEditComplete:      cause.NewBus[EditCompleteEvent](),
		onFaultChange:       cause.NewBus[FaultChangeEvent](),
	}
	p.engine = edit.New(p.parser, p, p)
	return p
}

// --- edit.Sink -------------------------------------------------------

func (p *Program) Invalidate(doc *document.Document, statements []*statement.Statement, indices []int) {
	p.onInvalidate.Publish(InvalidateEvent{Document: doc, Statements: statements, Indices: indices})
}

func (p *Program) Revalidate(doc *document.Document, statements []*statement.Statement, indices []int) {
	p.onRevalidate.Publish(RevalidateEvent{Document: doc, Statements: statements, Indices: indices})
}

func (p *Program) EditComplete(doc *document.Document) {
	p.log.Debug("edit complete", zap.String("document_id", doc.ID), zap.Uint64("version", doc.Version))
	p.onEditComplete.Publish(EditCompleteEvent{Document: doc})
}

func (p *Program) FaultChange(added, removed []fault.Fault) {
	p.log.Debug("fault change", zap.Int("added", len(added)), zap.Int("removed", len(removed)))
	p.onFaultChange.Publish(FaultChangeEvent{Added: added, Removed: removed})
}

// --- resolve.Loader ----------------------------------------------------

func (p *Program) GetDocumentByURI(u uri.Uri) (*document.Document, bool) {
	d, ok := p.byURI[u.StoreString()]
	return d, ok
}

func (p *Program) AddDocumentFromURI(u uri.Uri) (*document.Document, error) {
	if d, ok := p.GetDocumentByURI(u); ok {
		return d, nil
	}
	if p.reader == nil {
		return nil, fmt.Errorf("truth: no UriReader configured, cannot load %s", u.StoreString())
	}
	text, err := p.reader.Read(u)
	if err != nil {
		return nil, fmt.Errorf("truth: loading %s: %w", u.StoreString(), err)
	}
	doc := p.newDocumentFromText(text)
	doc.SelfURI = u
	doc.HasURI = true
	p.register(doc)
	return doc, nil
}

// --- document lifecycle -------------------------------------------------

func (p *Program) newDocumentFromText(text string) *document.Document {
	doc := document.New(uuid.NewString())
	lines := splitSourceLines(text)
	doc.Statements = make([]*statement.Statement, len(lines))
	for i, line := range lines {
		st := p.parser.ParseLine(line)
		st.Line = i
		doc.Statements[i] = st
		inflateStatement(doc, i)
	}
	var uriStatements []*statement.Statement
	for _, st := range doc.Statements {
		if st.HasUri() {
			uriStatements = append(uriStatements, st)
		}
	}
	resolve.Resolve(doc, nil, uriStatements, p)
	return doc
}

// inflateStatement creates every phrase spine a statement's declarations
// produce (§4.6): the Cartesian product of its ancestors' declaration
// subjects, crossed with its own declaration spans, each combination
// anchored to the declaration span that ends it. Each hop of a spine is
// disambiguated by the clarifiers of whichever statement actually declared
// that hop's subject — an ancestor's own annotations for an ancestor hop,
// this statement's for the terminal hop — never by this statement's
// annotations applied across the whole spine, so an ancestor hop already
// inflated under its own clarifier key is reused rather than duplicated.
func inflateStatement(doc *document.Document, idx int) {
	st := doc.Statements[idx]
	if len(st.AllDeclarations) == 0 {
		return
	}
	ancestry := doc.GetAncestry(idx)
	ancestorLists := make([][]subject.Subject, len(ancestry))
	ancestorClarifiers := make([][]*subject.Term, len(ancestry))
	for i, anc := range ancestry {
		ancestorLists[i] = anc.DeclarationSubjects()
		ancestorClarifiers[i] = anc.AnnotationTerms()
	}
	prefixes, prefixClarifiers := cartesianSubjects(ancestorLists, ancestorClarifiers)
	leafClarifiers := st.AnnotationTerms()

	for i, prefix := range prefixes {
		hopClarifiers := append(append([][]*subject.Term{}, prefixClarifiers[i]...), leafClarifiers)
		for _, sp := range st.AllDeclarations {
			path := make([]subject.Subject, 0, len(prefix)+1)
			path = append(path, prefix...)
			path = append(path, sp.Subject)
			phrase.CreateRecursive(doc.Root, path, hopClarifiers, sp)
		}
	}
}

// cartesianSubjects returns the Cartesian product of lists as ordered
// subject combinations, paired with the clarifier set that produced each
// hop of each combination (clarifiers[i][j] is the clarifying terms for
// combos[i][j]); an ancestor contributing no declarations is skipped
// entirely, from both the subject and clarifier side in lockstep, rather
// than leaving a gap. A nil/empty lists yields one empty combination.
func cartesianSubjects(lists [][]subject.Subject, clarifiers [][]*subject.Term) ([][]subject.Subject, [][][]*subject.Term) {
	combos := [][]subject.Subject{{}}
	combosClarifiers := [][][]*subject.Term{{}}
	for i, list := range lists {
		if len(list) == 0 {
			continue
		}
		nextCombos := make([][]subject.Subject, 0, len(combos)*len(list))
		nextClarifiers := make([][][]*subject.Term, 0, len(combos)*len(list))
		for c, prefix := range combos {
			prefixClarifiers := combosClarifiers[c]
			for _, item := range list {
				combo := make([]subject.Subject, len(prefix)+1)
				copy(combo, prefix)
				combo[len(prefix)] = item

				comboClarifiers := make([][]*subject.Term, len(prefixClarifiers)+1)
				copy(comboClarifiers, prefixClarifiers)
				comboClarifiers[len(prefixClarifiers)] = clarifiers[i]

				nextCombos = append(nextCombos, combo)
				nextClarifiers = append(nextClarifiers, comboClarifiers)
			}
		}
		combos = nextCombos
		combosClarifiers = nextClarifiers
	}
	return combos, combosClarifiers
}

func (p *Program) register(doc *document.Document) {
	p.documents[doc.ID] = doc
	if doc.HasURI {
		p.byURI[doc.SelfURI.StoreString()] = doc
	}
	p.log.Info("document created", zap.String("document_id", doc.ID))
	p.onDocumentCreate.Publish(DocumentCreateEvent{Document: doc})
}

// OpenDocumentFromText parses text into a new, registered Document.
func (p *Program) OpenDocumentFromText(text string) *document.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc := p.newDocumentFromText(text)
	p.register(doc)
	return doc
}

// OpenDocumentFromURI loads and registers a Document from u, the same way
// the reference resolver does for a discovered dependency.
func (p *Program) OpenDocumentFromURI(u uri.Uri) (*document.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.AddDocumentFromURI(u)
}

// DeleteDocument removes doc from the program, firing DocumentDelete
// immediately before removal (§6).
func (p *Program) DeleteDocument(doc *document.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDocumentDelete.Publish(DocumentDeleteEvent{Document: doc})
	delete(p.documents, doc.ID)
	if doc.HasURI {
		delete(p.byURI, doc.SelfURI.StoreString())
	}
	for _, dep := range doc.Dependencies {
		dep.Dependents = removeDoc(dep.Dependents, doc)
	}
	for _, dt := range doc.Dependents {
		dt.Dependencies = removeDoc(dt.Dependencies, doc)
	}
}

// UpdateDocumentURI reassigns doc's self URI, firing DocumentUriChange
// (§6). Assigning a URI already bound to a different document is a
// programmer error (§7.2) and fails fast without mutating state.
func (p *Program) UpdateDocumentURI(doc *document.Document, newURI uri.Uri) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byURI[newURI.StoreString()]; ok && existing != doc {
		return oops.Code("UriAlreadyInUse").Errorf("uri %s is already assigned to another document", newURI.StoreString())
	}

	if doc.HasURI {
		delete(p.byURI, doc.SelfURI.StoreString())
	}
	doc.SelfURI = newURI
	doc.HasURI = true
	p.byURI[newURI.StoreString()] = doc

	p.onDocumentUriChange.Publish(DocumentUriChangeEvent{Document: doc, NewURI: newURI})
	return nil
}

// Edit runs one transaction against doc (§4.5).
func (p *Program) Edit(doc *document.Document, mutatorFn func(m *edit.Mutator)) error {
	return p.engine.Edit(doc, mutatorFn)
}

// EditAtomic runs one transaction built from editor-style range edits.
func (p *Program) EditAtomic(doc *document.Document, edits []edit.RangeEdit) error {
	return p.engine.EditAtomic(doc, edits)
}

// --- cause subscriptions -------------------------------------------------

func (p *Program) OnDocumentCreate(fn func(DocumentCreateEvent)) (unsubscribe func()) {
	return p.onDocumentCreate.Subscribe(fn)
}
func (p *Program) OnDocumentDelete(fn func(DocumentDeleteEvent)) (unsubscribe func()) {
	return p.onDocumentDelete.Subscribe(fn)
}
func (p *Program) OnDocumentUriChange(fn func(DocumentUriChangeEvent)) (unsubscribe func()) {
	return p.onDocumentUriChange.Subscribe(fn)
}
func (p *Program) OnInvalidate(fn func(InvalidateEvent)) (unsubscribe func()) {
	return p.onInvalidate.Subscribe(fn)
}
func (p *Program) OnRevalidate(fn func(RevalidateEvent)) (unsubscribe func()) {
	return p.onRevalidate.Subscribe(fn)
}
func (p *Program) OnEditComplete(fn func(EditCompleteEvent)) (unsubscribe func()) {
	return p.onEditComplete.Subscribe(fn)
}
func (p *Program) OnFaultChange(fn func(FaultChangeEvent)) (unsubscribe func()) {
	return p.onFaultChange.Subscribe(fn)
}

// --- root-type query surface ---------------------------------------------

// QueryRootTypes returns the subjects reachable in one hop from doc's
// phrase root: the document's top-level declared types (§6 "query root
// types").
func (p *Program) QueryRootTypes(doc *document.Document) []subject.Subject {
	snapshot := doc.Root.Snapshot()
	out := make([]subject.Subject, 0, len(snapshot))
	for _, child := range snapshot {
		out = append(out, child.Terminal)
	}
	return out
}

// --- verification queue ---------------------------------------------------

// QueueVerification enqueues a phrase for the (pluggable, out-of-scope-for
// this front end) type verifier to examine.
func (p *Program) QueueVerification(ph *phrase.Phrase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verification = append(p.verification, ph)
}

// ForceVerificationDrain processes up to the configured limit of queued
// phrases via verify, returning how many were drained (§6 "force
// verification drain").
func (p *Program) ForceVerificationDrain(verify func(*phrase.Phrase)) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	limit := p.cfg.VerificationDrainLimit
	if limit <= 0 || limit > len(p.verification) {
		limit = len(p.verification)
	}
	for i := 0; i < limit; i++ {
		if verify != nil {
			verify(p.verification[i])
		}
	}
	p.verification = p.verification[limit:]
	return limit
}

func removeDoc(docs []*document.Document, target *document.Document) []*document.Document {
	out := docs[:0]
	for _, d := range docs {
		if d != target {
			out = append(out, d)
		}
	}
	return out
}

func splitSourceLines(text string) []string {
	if text == "" {
		return []string{""}
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}
