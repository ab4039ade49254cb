package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
)

func termSubject(in *subject.Interner, spelling string) subject.Subject {
	return subject.NewTerm(in.Intern(spelling))
}

func TestCreateRecursive_BuildsPathAndInflates(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	span := &statement.Span{}

	dog := termSubject(in, "Dog")
	mammal := termSubject(in, "Mammal")

	leaf := CreateRecursive(root, []subject.Subject{dog, mammal}, nil, span)

	require.NotNil(t, leaf)
	assert.Equal(t, 2, leaf.Length)
	assert.True(t, leaf.InflatingSpans[span])

	children := root.Peek(dog)
	require.Len(t, children, 1)
	assert.Equal(t, 1, children[0].Length)
}

func TestPeekClarified_DisambiguatesHomographs(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	spanA := &statement.Span{}
	spanB := &statement.Span{}

	bank := termSubject(in, "Bank")
	river := in.Intern("River")
	money := in.Intern("Money")

	leafRiver := root.createRecursive(bank, []*subject.Term{river}, spanA)
	leafMoney := root.createRecursive(bank, []*subject.Term{money}, spanB)

	assert.NotEqual(t, leafRiver, leafMoney)

	got, ok := root.PeekClarified(bank, ClarifierKeyFor([]*subject.Term{river}))
	require.True(t, ok)
	assert.Equal(t, leafRiver, got)
}

func TestDeleteRecursive_DeflatesEmptyChain(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	span := &statement.Span{}

	dog := termSubject(in, "Dog")
	mammal := termSubject(in, "Mammal")
	path := []subject.Subject{dog, mammal}

	CreateRecursive(root, path, nil, span)
	require.Len(t, root.Peek(dog), 1)

	DeleteRecursive(root, path, nil, span)

	assert.Empty(t, root.Peek(dog))
	assert.False(t, root.IsInflated())
}

func TestDeleteRecursive_KeepsSharedPrefixAliveForOtherSpans(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	spanA := &statement.Span{}
	spanB := &statement.Span{}

	dog := termSubject(in, "Dog")
	mammal := termSubject(in, "Mammal")
	cat := termSubject(in, "Cat")

	CreateRecursive(root, []subject.Subject{dog, mammal}, nil, spanA)
	CreateRecursive(root, []subject.Subject{dog, cat}, nil, spanB)

	DeleteRecursive(root, []subject.Subject{dog, mammal}, nil, spanA)

	// Dog is still inflated via the Dog->Cat path, so its phrase must survive.
	dogChildren := root.Peek(dog)
	require.Len(t, dogChildren, 1)
	assert.True(t, dogChildren[0].IsInflated())
}

func TestComputeFork_CollectsOriginAncestorsAndForeignRoots(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	span := &statement.Span{}

	dog := termSubject(in, "Dog")
	fetches := termSubject(in, "Fetches")

	origin := CreateRecursive(root, []subject.Subject{dog}, nil, span)
	localFetch := CreateRecursive(root, []subject.Subject{dog, fetches}, nil, span)

	foreignRoot := NewRoot()
	foreignSpan := &statement.Span{}
	foreignFetch := CreateRecursive(foreignRoot, []subject.Subject{fetches}, nil, foreignSpan)

	fork := ComputeFork(origin, fetches, []*Phrase{foreignRoot})

	assert.Equal(t, origin, fork.Origin)
	require.Len(t, fork.Successors, 2)
	assert.Contains(t, fork.Successors, localFetch)
	assert.Contains(t, fork.Successors, foreignFetch)
}

func TestPathComponents_RoundTripsViaFromPathComponents(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	span := &statement.Span{}

	dog := termSubject(in, "Dog")
	mammal := termSubject(in, "Mammal")

	leaf := CreateRecursive(root, []subject.Subject{dog, mammal}, nil, span)
	path := leaf.PathComponents()
	require.Len(t, path, 2)

	found, ok := FromPathComponents(root, path, []string{"", ""})
	require.True(t, ok)
	assert.Equal(t, leaf, found)
}

func TestFromPathComponents_SynthesizesHypotheticalOnMiss(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()

	dog := termSubject(in, "Dog")
	fetches := termSubject(in, "Fetches")

	// Dog is never inflated at all: both hops miss.
	found, ok := FromPathComponents(root, []subject.Subject{dog, fetches}, []string{"", ""})
	require.True(t, ok)
	require.NotNil(t, found)
	assert.True(t, found.Hypothetical)
	assert.Equal(t, fetches, found.Terminal)
	assert.Equal(t, 2, found.Length)

	// The hypothetical walk must not have registered anything real.
	assert.Empty(t, root.Peek(dog))
}

func TestFromPathComponents_HypotheticalAfterRealPrefix(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	span := &statement.Span{}

	dog := termSubject(in, "Dog")
	fetches := termSubject(in, "Fetches")

	CreateRecursive(root, []subject.Subject{dog}, nil, span)

	found, ok := FromPathComponents(root, []subject.Subject{dog, fetches}, []string{"", ""})
	require.True(t, ok)
	require.NotNil(t, found)
	assert.True(t, found.Hypothetical)

	// Dog itself stays real; only the missing Fetches hop is hypothetical.
	assert.False(t, found.Parent.Hypothetical)
}

func TestFromPathComponents_NonRootAmbiguityFailsTheWalk(t *testing.T) {
	in := subject.NewInterner()
	root := NewRoot()
	spanRoot := &statement.Span{}
	spanA := &statement.Span{}
	spanB := &statement.Span{}

	bank := termSubject(in, "Bank")
	river := in.Intern("River")
	money := in.Intern("Money")
	fetches := termSubject(in, "Fetches")

	bankPhrase := root.createRecursive(bank, nil, spanRoot)
	// Two Fetches homographs hang off Bank, disambiguated only by clarifier.
	bankPhrase.createRecursive(fetches, []*subject.Term{river}, spanA)
	bankPhrase.createRecursive(fetches, []*subject.Term{money}, spanB)

	// The root hop itself is unambiguous (one Bank phrase, unclarified).
	found, ok := FromPathComponents(root, []subject.Subject{bank}, []string{""})
	require.True(t, ok)
	assert.Equal(t, bankPhrase, found)

	// Descending past it unclarified, where that hop has >1 match, fails.
	found, ok = FromPathComponents(root, []subject.Subject{bank, fetches}, []string{"", ""})
	assert.False(t, ok)
	assert.Nil(t, found)
}
