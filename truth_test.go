package truth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/config"
	"github.com/ritamzico/truth/internal/phrase"
)

func newTestProgram() *Program {
	return New(config.Default(), nil, nil)
}

func TestOpenDocumentFromText_RegistersAndInflates(t *testing.T) {
	p := newTestProgram()
	doc := p.OpenDocumentFromText("Animal\n  Dog: Animal")

	require.Len(t, doc.Statements, 2)
	types := p.QueryRootTypes(doc)
	require.Len(t, types, 1)
	assert.Equal(t, "Animal", types[0].String())
}

func TestEdit_UpdatesStatementAndFiresCauseEvents(t *testing.T) {
	p := newTestProgram()
	doc := p.OpenDocumentFromText("Dog: Animal")

	var completed int
	p.OnEditComplete(func(EditCompleteEvent) { completed++ })

	var faultChanges int
	p.OnFaultChange(func(FaultChangeEvent) { faultChanges++ })

	err := p.Edit(doc, func(m *Mutator) {
		m.Update("Dog, Dog", 0)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, faultChanges)
	require.NotEmpty(t, doc.Statements[0].Faults)
}

func TestUpdateDocumentURI_RejectsCollisionWithAnotherDocument(t *testing.T) {
	p := newTestProgram()
	docA := p.OpenDocumentFromText("A")
	docB := p.OpenDocumentFromText("B")

	u := Uri{Protocol: "file", Path: []string{"a.truth"}}
	require.NoError(t, p.UpdateDocumentURI(docA, u))

	err := p.UpdateDocumentURI(docB, u)
	assert.Error(t, err)
}

func TestUpdateDocumentURI_FiresDocumentUriChange(t *testing.T) {
	p := newTestProgram()
	doc := p.OpenDocumentFromText("A")

	var gotURI Uri
	p.OnDocumentUriChange(func(e DocumentUriChangeEvent) { gotURI = e.NewURI })

	u := Uri{Protocol: "file", Path: []string{"a.truth"}}
	require.NoError(t, p.UpdateDocumentURI(doc, u))
	assert.Equal(t, "file://a.truth", gotURI.StoreString())

	got, ok := p.GetDocumentByURI(u)
	require.True(t, ok)
	assert.Same(t, doc, got)
}

func TestDeleteDocument_UnlinksDependenciesAndDependents(t *testing.T) {
	p := newTestProgram()
	other := p.OpenDocumentFromText("Thing")
	u := Uri{Protocol: "file", Path: []string{"other.truth"}}
	require.NoError(t, p.UpdateDocumentURI(other, u))

	doc := p.OpenDocumentFromText("file//other.truth")
	require.Len(t, doc.Dependencies, 1)
	require.Len(t, other.Dependents, 1)

	var deleted int
	p.OnDocumentDelete(func(DocumentDeleteEvent) { deleted++ })

	p.DeleteDocument(doc)
	assert.Equal(t, 1, deleted)
	assert.Empty(t, other.Dependents)

	_, ok := p.GetDocumentByURI(u)
	assert.True(t, ok, "deleting a dependent must not remove the dependency it referenced")
}

func TestQueueVerificationAndForceVerificationDrain(t *testing.T) {
	p := newTestProgram()
	doc := p.OpenDocumentFromText("Animal")
	p.QueueVerification(doc.Root)
	p.QueueVerification(doc.Root)

	var verified int
	drained := p.ForceVerificationDrain(func(ph *phrase.Phrase) { verified++ })
	assert.Equal(t, 2, drained)
	assert.Equal(t, 2, verified)

	// The queue is now empty; draining again processes nothing.
	assert.Equal(t, 0, p.ForceVerificationDrain(func(ph *phrase.Phrase) { verified++ }))
}

func TestForceVerificationDrain_RespectsConfiguredLimit(t *testing.T) {
	cfg := config.Default()
	cfg.VerificationDrainLimit = 1
	p := New(cfg, nil, nil)
	doc := p.OpenDocumentFromText("Animal")
	p.QueueVerification(doc.Root)
	p.QueueVerification(doc.Root)

	drained := p.ForceVerificationDrain(func(ph *phrase.Phrase) {})
	assert.Equal(t, 1, drained)
	assert.Equal(t, 1, p.ForceVerificationDrain(func(ph *phrase.Phrase) {}))
}
