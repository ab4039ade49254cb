// Package explain implements truthctl's "explain" query language: a small
// read-only grammar for inspecting a loaded Program from the command line
// (FAULTS OF/TREE OF/TYPES OF a document URI), built the same way the
// teacher builds its DSL grammar — a participle lexer plus a dispatch-
// struct AST.
package explain

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var explainLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(FAULTS|TREE|TYPES|OF)\b`},
	{Name: "Uri", Pattern: `[a-zA-Z]+://[^\s]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Query is the top-level AST node: exactly one of the three forms.
type Query struct {
	Faults *FaultsQuery `parser:"  \"FAULTS\" \"OF\" @@"`
	Tree   *TreeQuery   `parser:"| \"TREE\" \"OF\" @@"`
	Types  *TypesQuery  `parser:"| \"TYPES\" \"OF\" @@"`
}

// FaultsQuery: "FAULTS OF <uri>" — list every fault on the named document.
type FaultsQuery struct {
	Uri string `parser:"@Uri"`
}

// TreeQuery: "TREE OF <uri>" — render the named document's indentation
// tree.
type TreeQuery struct {
	Uri string `parser:"@Uri"`
}

// TypesQuery: "TYPES OF <uri>" — list the root phrase types the named
// document declares.
type TypesQuery struct {
	Uri string `parser:"@Uri"`
}

var explainParser = participle.MustBuild[Query](
	participle.Lexer(explainLexer),
	participle.CaseInsensitive("Keyword"),
	participle.Elide("Whitespace"),
)

// Parse parses one explain-query line into its AST.
func Parse(line string) (*Query, error) {
	return explainParser.ParseString("", line)
}
