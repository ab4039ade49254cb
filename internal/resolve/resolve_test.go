package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

// fakeLoader resolves by exact store-form match against a preloaded map and
// records every AddDocumentFromURI call, standing in for the program
// facade's URI-reader-backed loader.
type fakeLoader struct {
	docs    map[string]*document.Document
	addErr  error
	added   []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{docs: make(map[string]*document.Document)}
}

func (l *fakeLoader) GetDocumentByURI(u uri.Uri) (*document.Document, bool) {
	d, ok := l.docs[u.StoreString()]
	return d, ok
}

func (l *fakeLoader) AddDocumentFromURI(u uri.Uri) (*document.Document, error) {
	l.added = append(l.added, u.StoreString())
	if l.addErr != nil {
		return nil, l.addErr
	}
	d := document.New(u.StoreString())
	l.docs[u.StoreString()] = d
	return d, nil
}

func uriStatement(t *testing.T, in *subject.Interner, line int, raw string) *statement.Statement {
	t.Helper()
	p := statement.NewParser(in)
	st := p.ParseLine(raw)
	require.True(t, st.HasUri())
	st.Line = line
	return st
}

func TestResolve_AddsDependencyAndDependent(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	loader := newFakeLoader()
	target := document.New("target")
	loader.docs["file://other.truth"] = target

	st := uriStatement(t, in, 0, "file//other.truth")

	Resolve(doc, nil, []*statement.Statement{st}, loader)

	require.Len(t, doc.Dependencies, 1)
	assert.Same(t, target, doc.Dependencies[0])
	require.Len(t, target.Dependents, 1)
	assert.Same(t, doc, target.Dependents[0])
	assert.Empty(t, st.Faults)
}

func TestResolve_UnresolvedResourceFault(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	loader := newFakeLoader()
	loader.addErr = errors.New("not found")

	st := uriStatement(t, in, 0, "file//missing.truth")

	Resolve(doc, nil, []*statement.Statement{st}, loader)

	require.NotEmpty(t, st.Faults)
	assert.Equal(t, fault.UnresolvedResource, st.Faults[0].Code)
	assert.Empty(t, doc.Dependencies)
}

func TestResolve_InsecureDowngradeFault(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	doc.HasURI = true
	doc.SelfURI = uri.Uri{Protocol: uri.HTTPS, Path: []string{"a.truth"}}
	loader := newFakeLoader()
	loader.docs["file://other.truth"] = document.New("target")

	st := uriStatement(t, in, 0, "file//other.truth")

	Resolve(doc, nil, []*statement.Statement{st}, loader)

	require.NotEmpty(t, st.Faults)
	assert.Equal(t, fault.InsecureResourceReference, st.Faults[0].Code)
}

func TestResolve_CircularReferenceFault(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	other := document.New("other")
	// other already depends on doc, so doc -> other would close a cycle.
	other.Dependencies = []*document.Document{doc}

	loader := newFakeLoader()
	loader.docs["file://other.truth"] = other

	st := uriStatement(t, in, 0, "file//other.truth")

	Resolve(doc, nil, []*statement.Statement{st}, loader)

	require.NotEmpty(t, st.Faults)
	assert.Equal(t, fault.CircularResourceReference, st.Faults[0].Code)
}

// TestResolve_DuplicateReference_FlagsEarliestOccurrence pins the
// descending-by-line sort order documented in DESIGN.md: when the same
// store form is referenced twice, the earlier-occurring (lower line
// number) statement is the one that ends up flagged, because it is visited
// last in the descending scan, after the later occurrence has already
// marked the form seen.
func TestResolve_DuplicateReference_FlagsEarliestOccurrence(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	loader := newFakeLoader()
	loader.docs["file://other.truth"] = document.New("target")

	early := uriStatement(t, in, 0, "file//other.truth")
	late := uriStatement(t, in, 5, "file//other.truth")

	Resolve(doc, nil, []*statement.Statement{early, late}, loader)

	assert.Empty(t, late.Faults)
	require.NotEmpty(t, early.Faults)
	assert.Equal(t, fault.DuplicateReference, early.Faults[0].Code)
}

func TestResolve_DeletedDependencyIsRemovedAndDependentUnlinked(t *testing.T) {
	in := subject.NewInterner()
	doc := document.New("doc")
	loader := newFakeLoader()
	target := document.New("target")
	loader.docs["file://other.truth"] = target

	st := uriStatement(t, in, 0, "file//other.truth")
	Resolve(doc, nil, []*statement.Statement{st}, loader)
	require.Len(t, doc.Dependencies, 1)

	Resolve(doc, []*statement.Statement{st}, nil, loader)

	assert.Empty(t, doc.Dependencies)
	assert.Empty(t, target.Dependents)
}
