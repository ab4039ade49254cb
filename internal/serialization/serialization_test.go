package serialization

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

func buildDoc(t *testing.T) *document.Document {
	t.Helper()
	in := subject.NewInterner()
	p := statement.NewParser(in)
	d := document.New("doc-1")
	d.HasURI = true
	d.SelfURI = uri.Uri{Protocol: uri.File, Path: []string{"a.truth"}}
	d.Version = 3

	st0 := p.ParseLine("Dog: Animal")
	st0.Line = 0
	st1 := p.ParseLine("Dog, Dog")
	st1.Line = 1
	d.Statements = []*statement.Statement{st0, st1}
	return d
}

func TestMarshalDocument_Shape(t *testing.T) {
	d := buildDoc(t)
	out := MarshalDocument(d)

	assert.Equal(t, "doc-1", out.ID)
	assert.Equal(t, "file://a.truth", out.URI)
	assert.Equal(t, uint64(3), out.Version)
	require.Len(t, out.Statements, 2)

	first := out.Statements[0]
	require.Len(t, first.Declarations, 1)
	assert.Equal(t, "term", first.Declarations[0].Kind)
	assert.Equal(t, "Dog", first.Declarations[0].Value)
	require.Len(t, first.Annotations, 1)
	assert.Equal(t, "Animal", first.Annotations[0].Value)
	assert.Empty(t, first.Faults)

	second := out.Statements[1]
	require.Len(t, second.Faults, 1)
	assert.Equal(t, "DuplicateDeclaration", second.Faults[0].Code)
	assert.Equal(t, "error", second.Faults[0].Severity)
}

func TestMarshalDocument_OmitsURIWhenAbsent(t *testing.T) {
	d := document.New("doc-2")
	out := MarshalDocument(d)
	assert.Empty(t, out.URI)
}

func TestWriteJSON_ProducesValidJSON(t *testing.T) {
	d := buildDoc(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(d, &buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "doc-1", decoded["id"])
	assert.Equal(t, "file://a.truth", decoded["uri"])
}
