package explain

import (
	"fmt"
	"strings"

	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/result"
	"github.com/ritamzico/truth/internal/uri"
)

// parseURI accepts the store form a host types at the prompt, e.g.
// "file://docs/a.truth", and recovers the Uri the Program indexes by.
func parseURI(raw string) (uri.Uri, error) {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return uri.Uri{}, fmt.Errorf("explain: %q is not a protocol URI", raw)
	}
	proto := uri.Protocol(raw[:idx])
	return uri.Parse(proto, raw[idx+len("://"):])
}

// Evaluate runs q against the document lookup/root-types functions a host
// supplies (avoiding a dependency on the truth root package), returning the
// Result a host renders.
func Evaluate(q *Query, lookup func(uri.Uri) (*document.Document, bool), rootTypes func(*document.Document) []string) (result.Result, error) {
	switch {
	case q.Faults != nil:
		doc, err := resolveDoc(q.Faults.Uri, lookup)
		if err != nil {
			return nil, err
		}
		return result.FaultsResult{Lines: faultLines(doc)}, nil

	case q.Tree != nil:
		doc, err := resolveDoc(q.Tree.Uri, lookup)
		if err != nil {
			return nil, err
		}
		return result.TreeResult{Text: doc.ToString(true)}, nil

	case q.Types != nil:
		doc, err := resolveDoc(q.Types.Uri, lookup)
		if err != nil {
			return nil, err
		}
		return result.TypesResult{Types: rootTypes(doc)}, nil

	default:
		return nil, fmt.Errorf("explain: empty query")
	}
}

func resolveDoc(raw string, lookup func(uri.Uri) (*document.Document, bool)) (*document.Document, error) {
	u, err := parseURI(raw)
	if err != nil {
		return nil, err
	}
	doc, ok := lookup(u)
	if !ok {
		return nil, fmt.Errorf("explain: no document at %s", u.StoreString())
	}
	return doc, nil
}

func faultLines(doc *document.Document) []string {
	uriForm := ""
	if doc.HasURI {
		uriForm = doc.SelfURI.RenderedProtocol()
	}
	var lines []string
	for _, st := range doc.Statements {
		for _, f := range st.Faults {
			lines = append(lines, f.Render(uriForm, st.Line))
		}
	}
	return lines
}
