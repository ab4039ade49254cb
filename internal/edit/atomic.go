package edit

import (
	"strings"

	"github.com/ritamzico/truth/internal/document"
)

// Range is an editor-style [start,end) position in line/column coordinates.
type Range struct {
	StartLine, StartCol int
	EndLine, EndCol      int
}

// RangeEdit is one editor-style replacement: replace the text spanning
// Range with Text.
type RangeEdit struct {
	Range Range
	Text  string
}

// EditAtomic converts a batch of editor-style range edits into mutator
// calls and runs them as one transaction (§4.5 "edit_atomic"). It detects
// the common pure-update (whole-line replace), pure-delete (whole-line
// range removed), and pure-insert (new whole lines at a line boundary)
// shapes; anything else falls back to delete-affected-lines-then-insert.
func (e *Engine) EditAtomic(doc *document.Document, edits []RangeEdit) error {
	return e.Edit(doc, func(m *Mutator) {
		for _, re := range edits {
			applyRangeEdit(doc, m, re)
		}
	})
}

func lineLen(doc *document.Document, i int) int {
	if i < 0 || i >= len(doc.Statements) {
		return 0
	}
	return len(doc.Statements[i].SourceText)
}

func applyRangeEdit(doc *document.Document, m *Mutator, re RangeEdit) {
	r := re.Range

	// Pure update: replacing exactly one whole line with single-line text.
	if r.StartLine == r.EndLine && r.StartCol == 0 && r.EndCol == lineLen(doc, r.StartLine) && !strings.Contains(re.Text, "\n") {
		m.Update(re.Text, r.StartLine)
		return
	}

	// Pure delete of a whole-line range.
	if re.Text == "" && r.StartCol == 0 && r.EndCol == 0 && r.EndLine > r.StartLine {
		m.Delete(r.StartLine, r.EndLine-r.StartLine)
		return
	}

	// Pure insert at a line boundary: zero-width range, whole new lines.
	if r.StartLine == r.EndLine && r.StartCol == 0 && r.EndCol == 0 && strings.HasSuffix(re.Text, "\n") {
		m.Insert(strings.TrimSuffix(re.Text, "\n"), r.StartLine)
		return
	}

	// Fallback: delete every affected line, then insert those lines again
	// with the range's text replaced by Text.
	prefix, suffix := "", ""
	if r.StartLine >= 0 && r.StartLine < len(doc.Statements) {
		src := doc.Statements[r.StartLine].SourceText
		prefix = src[:min(max(r.StartCol, 0), len(src))]
	}
	if r.EndLine >= 0 && r.EndLine < len(doc.Statements) {
		src := doc.Statements[r.EndLine].SourceText
		suffix = src[min(max(r.EndCol, 0), len(src)):]
	}
	count := r.EndLine - r.StartLine + 1
	if count > 0 {
		m.Delete(r.StartLine, count)
	}
	if text := prefix + re.Text + suffix; text != "" {
		m.Insert(text, r.StartLine)
	}
}
