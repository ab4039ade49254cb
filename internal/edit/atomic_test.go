package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditAtomic_PureUpdate(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal")

	err := e.EditAtomic(d, []RangeEdit{{
		Range: Range{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: lineLen(d, 0)},
		Text:  "Dog: Mammal",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Dog: Mammal", d.Statements[0].SourceText)
}

func TestEditAtomic_PureDelete(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal", "Cat: Animal", "Fish: Animal")

	err := e.EditAtomic(d, []RangeEdit{{
		Range: Range{StartLine: 1, StartCol: 0, EndLine: 2, EndCol: 0},
		Text:  "",
	}})
	require.NoError(t, err)
	require.Len(t, d.Statements, 2)
	assert.Equal(t, "Dog: Animal", d.Statements[0].SourceText)
	assert.Equal(t, "Fish: Animal", d.Statements[1].SourceText)
}

func TestEditAtomic_PureInsert(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Animal")

	err := e.EditAtomic(d, []RangeEdit{{
		Range: Range{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 0},
		Text:  "Cat: Animal\n",
	}})
	require.NoError(t, err)
	require.Len(t, d.Statements, 2)
	assert.Equal(t, "Cat: Animal", d.Statements[1].SourceText)
}

func TestEditAtomic_FallbackDeleteThenInsert(t *testing.T) {
	e, _ := newTestEngine()
	d := docFrom(e.Parser, "Dog: Anmal")

	// A mid-line partial-column edit matches none of the three whole-line
	// shapes, so it must fall back to delete-the-line-then-insert.
	err := e.EditAtomic(d, []RangeEdit{{
		Range: Range{StartLine: 0, StartCol: 5, EndLine: 0, EndCol: 10},
		Text:  "Animal",
	}})
	require.NoError(t, err)
	require.Len(t, d.Statements, 1)
	assert.Equal(t, "Dog: Animal", d.Statements[0].SourceText)
}
