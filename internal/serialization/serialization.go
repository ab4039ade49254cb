// Package serialization renders a Document to the JSON shape truthd's HTTP
// API emits, tagging each
// statement's declaration/annotation subjects by variant the same way the
// teacher tagged graph property values by kind.
package serialization

import (
	"encoding/json"
	"io"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/statement"
	"github.com/ritamzico/truth/internal/subject"
)

type serializedSubject struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func marshalSubject(s subject.Subject) serializedSubject {
	switch s.Kind() {
	case subject.KindTerm:
		return serializedSubject{Kind: "term", Value: s.String()}
	case subject.KindPattern:
		return serializedSubject{Kind: "pattern", Value: s.String()}
	case subject.KindUri:
		return serializedSubject{Kind: "uri", Value: s.String()}
	default:
		return serializedSubject{Kind: "void"}
	}
}

type serializedFault struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

func marshalFaults(faults []fault.Fault) []serializedFault {
	out := make([]serializedFault, 0, len(faults))
	for _, f := range faults {
		start, end := f.Range()
		out = append(out, serializedFault{
			Code:     f.Code.Name(),
			Severity: f.Severity.String(),
			Message:  f.Message,
			Start:    start,
			End:      end,
		})
	}
	return out
}

type serializedStatement struct {
	Line         int                 `json:"line"`
	Indent       int                 `json:"indent"`
	SourceText   string              `json:"source_text"`
	Declarations []serializedSubject `json:"declarations,omitempty"`
	Annotations  []serializedSubject `json:"annotations,omitempty"`
	Faults       []serializedFault   `json:"faults,omitempty"`
}

func marshalStatement(st *statement.Statement) serializedStatement {
	out := serializedStatement{
		Line:       st.Line,
		Indent:     st.Indent,
		SourceText: st.SourceText,
	}
	for _, sp := range st.AllDeclarations {
		out.Declarations = append(out.Declarations, marshalSubject(sp.Subject))
	}
	for _, sp := range st.AllAnnotations {
		out.Annotations = append(out.Annotations, marshalSubject(sp.Subject))
	}
	out.Faults = marshalFaults(st.Faults)
	return out
}

// SerializedDocument is the JSON shape a Document renders to.
type SerializedDocument struct {
	ID         string                `json:"id"`
	URI        string                `json:"uri,omitempty"`
	Version    uint64                `json:"version"`
	Statements []serializedStatement `json:"statements"`
}

// MarshalDocument converts doc to its JSON shape.
func MarshalDocument(doc *document.Document) SerializedDocument {
	out := SerializedDocument{ID: doc.ID, Version: doc.Version}
	if doc.HasURI {
		out.URI = doc.SelfURI.StoreString()
	}
	out.Statements = make([]serializedStatement, len(doc.Statements))
	for i, st := range doc.Statements {
		out.Statements[i] = marshalStatement(st)
	}
	return out
}

// WriteJSON encodes doc's JSON shape to w.
func WriteJSON(doc *document.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(MarshalDocument(doc))
}
