package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

// recordingSink is a fake edit.Sink that records call counts, standing in
// for the program facade's cause-bus-backed implementation.
type recordingSink struct {
	invalidateCalls int
	revalidateCalls int
	completeCalls   int
	faultChanges    int
}

func (s *recordingSink) Invalidate(doc *document.Document, statements []*statement.Statement, indices []int) {
	s.invalidateCalls++
}
func (s *recordingSink) Revalidate(doc *document.Document, statements []*statement.Statement, indices []int) {
	s.revalidateCalls++
}
func (s *recordingSink) EditComplete(doc *document.Document) { s.completeCalls++ }
func (s *recordingSink) FaultChange(added, removed []fault.Fault) {
	s.faultChanges++
}

// stubLoader never resolves anything; no test in this file exercises a URI
// statement, so it is never called.
type stubLoader struct{}

func (stubLoader) GetDocumentByURI(u uri.Uri) (*document.Document, bool) { return nil, false }
func (stubLoader) AddDocumentFromURI(u uri.Uri) (*document.Document, error) {
	return nil, nil
}

func newTestEngine() (*Engine, *recordingSink) {
	sink := &recordingSink{}
	p := statement.NewParser(subject.NewInterner())
	return New(p, sink, stubLoader{}), sink
}

func docFrom(p *statement.Parser, lines ...string) *document.Document {
	d := document.New("doc")
	for i, l := range lines {
		st := p.ParseLine(l)
		st.Line = i
		d.Statements = append(d.Statements, st)
	}
	return d
}

func TestEdit_FastPureUpdate(t *testing.T) {
	e, sink := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal", "Cat: Animal")

	err := e.Edit(d, func(m *Mutator) {
		m.Update("Dog: Mammal", 0)
	})
	require.NoError(t, err)

	assert.Equal(t, "Dog: Mammal", d.Statements[0].SourceText)
	assert.Equal(t, uint64(1), d.Version)
	assert.Equal(t, 1, sink.invalidateCalls)
	assert.Equal(t, 1, sink.revalidateCalls)
	assert.Equal(t, 1, sink.completeCalls)
}

func TestEdit_FastPureDeleteLeaves(t *testing.T) {
	e, sink := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal", "Cat: Animal", "Fish: Animal")

	err := e.Edit(d, func(m *Mutator) {
		m.Delete(1, 1)
	})
	require.NoError(t, err)

	require.Len(t, d.Statements, 2)
	assert.Equal(t, "Dog: Animal", d.Statements[0].SourceText)
	assert.Equal(t, "Fish: Animal", d.Statements[1].SourceText)
	assert.Equal(t, 1, sink.invalidateCalls)
}

func TestEdit_FastPureDeleteLeaves_RefusesNonLeaf(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Animal", "  Dog")

	// Deleting a statement with descendants is not a leaf-delete, so it must
	// fall through to the general path rather than being silently skipped.
	err := e.Edit(d, func(m *Mutator) {
		m.Delete(0, 1)
	})
	require.NoError(t, err)
	require.Len(t, d.Statements, 1)
	assert.Equal(t, "  Dog", d.Statements[0].SourceText)
}

func TestEdit_FastPureNoopInsert(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal")

	err := e.Edit(d, func(m *Mutator) {
		m.Insert("// a comment", 1)
	})
	require.NoError(t, err)
	require.Len(t, d.Statements, 2)
	assert.True(t, d.Statements[1].IsComment())
}

func TestEdit_GeneralPath_MixedInsertAndUpdate(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Animal", "  Dog: Animal")

	err := e.Edit(d, func(m *Mutator) {
		m.Insert("  Cat: Animal", 1)
		m.Update("Animal: Thing", 0)
	})
	require.NoError(t, err)
	require.Len(t, d.Statements, 3)
	assert.Equal(t, "Animal: Thing", d.Statements[0].SourceText)
	assert.Equal(t, "  Cat: Animal", d.Statements[1].SourceText)
	assert.Equal(t, "  Dog: Animal", d.Statements[2].SourceText)
}

func TestEdit_NoOps_StillSignalsComplete(t *testing.T) {
	e, sink := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal")

	err := e.Edit(d, func(m *Mutator) {})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.completeCalls)
	assert.Zero(t, d.Version)
}

func TestEdit_ReentrantCallFailsWithDoubleTransaction(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal")

	var innerErr error
	outerErr := e.Edit(d, func(m *Mutator) {
		innerErr = e.Edit(d, func(inner *Mutator) {
			inner.Update("Dog: Mammal", 0)
		})
	})

	require.NoError(t, outerErr)
	require.Error(t, innerErr)
	assert.False(t, d.InEdit)
}

func TestEdit_FaultChange_PublishedWhenFaultsChange(t *testing.T) {
	e, sink := newTestEngine()
	d := docFrom(e.Parser, "Dog, Dog")
	require.NotEmpty(t, d.Statements[0].Faults)

	err := e.Edit(d, func(m *Mutator) {
		m.Update("Dog: Mammal", 0)
	})
	require.NoError(t, err)
	assert.Empty(t, d.Statements[0].Faults)
	assert.Equal(t, 1, sink.faultChanges)
}
