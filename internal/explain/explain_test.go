package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/result"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

func TestParse_FaultsOf(t *testing.T) {
	q, err := Parse("FAULTS OF file://docs/a.truth")
	require.NoError(t, err)
	require.NotNil(t, q.Faults)
	assert.Equal(t, "file://docs/a.truth", q.Faults.Uri)
	assert.Nil(t, q.Tree)
	assert.Nil(t, q.Types)
}

func TestParse_TreeOf_CaseInsensitiveKeywords(t *testing.T) {
	q, err := Parse("tree of file://docs/a.truth")
	require.NoError(t, err)
	require.NotNil(t, q.Tree)
	assert.Equal(t, "file://docs/a.truth", q.Tree.Uri)
}

func TestParse_TypesOf(t *testing.T) {
	q, err := Parse("TYPES OF file://docs/a.truth")
	require.NoError(t, err)
	require.NotNil(t, q.Types)
}

func TestParse_RejectsUnknownVerb(t *testing.T) {
	_, err := Parse("DELETE file://docs/a.truth")
	assert.Error(t, err)
}

func buildDoc(t *testing.T, hasURI bool) *document.Document {
	t.Helper()
	in := subject.NewInterner()
	p := statement.NewParser(in)
	d := document.New("doc-1")
	if hasURI {
		d.HasURI = true
		d.SelfURI = uri.Uri{Protocol: uri.File, Path: []string{"a.truth"}}
	}
	st := p.ParseLine("Dog, Dog")
	st.Line = 0
	d.Statements = append(d.Statements, st)
	return d
}

func TestEvaluate_FaultsResult(t *testing.T) {
	doc := buildDoc(t, true)
	lookup := func(u uri.Uri) (*document.Document, bool) { return doc, true }

	q, err := Parse("FAULTS OF file://a.truth")
	require.NoError(t, err)

	res, err := Evaluate(q, lookup, nil)
	require.NoError(t, err)
	fr, ok := res.(result.FaultsResult)
	require.True(t, ok)
	require.Len(t, fr.Lines, 1)
}

func TestEvaluate_TreeResult(t *testing.T) {
	doc := buildDoc(t, false)
	lookup := func(u uri.Uri) (*document.Document, bool) { return doc, true }

	q, err := Parse("TREE OF file://a.truth")
	require.NoError(t, err)

	res, err := Evaluate(q, lookup, nil)
	require.NoError(t, err)
	tr, ok := res.(result.TreeResult)
	require.True(t, ok)
	assert.Equal(t, doc.ToString(true), tr.Text)
}

func TestEvaluate_TypesResult(t *testing.T) {
	doc := buildDoc(t, false)
	lookup := func(u uri.Uri) (*document.Document, bool) { return doc, true }
	rootTypes := func(d *document.Document) []string { return []string{"Animal", "Plant"} }

	q, err := Parse("TYPES OF file://a.truth")
	require.NoError(t, err)

	res, err := Evaluate(q, lookup, rootTypes)
	require.NoError(t, err)
	tyr, ok := res.(result.TypesResult)
	require.True(t, ok)
	assert.Equal(t, []string{"Animal", "Plant"}, tyr.Types)
}

func TestEvaluate_UnknownDocumentIsAnError(t *testing.T) {
	lookup := func(u uri.Uri) (*document.Document, bool) { return nil, false }

	q, err := Parse("FAULTS OF file://missing.truth")
	require.NoError(t, err)

	_, err = Evaluate(q, lookup, nil)
	assert.Error(t, err)
}
