package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritamzico/truth"
	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/explain"
)

// NewExplainCmd creates the "explain" subcommand: a small read-only query
// language over an opened document and whatever it references
// ("FAULTS OF <uri>", "TREE OF <uri>", "TYPES OF <uri>").
func NewExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <file> <query>",
		Short: `Answer an explain query, e.g. explain a.truth "FAULTS OF file://a.truth"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, query := args[0], args[1]

			p, err := newProgram(path)
			if err != nil {
				return err
			}
			if _, err := openFile(p, path); err != nil {
				return err
			}

			q, err := explain.Parse(query)
			if err != nil {
				return fmt.Errorf("parsing explain query: %w", err)
			}

			res, err := explain.Evaluate(q, p.GetDocumentByURI, rootTypeNames(p))
			if err != nil {
				return err
			}
			fmt.Println(res.String())
			return nil
		},
	}
}

func rootTypeNames(p *truth.Program) func(*document.Document) []string {
	return func(doc *document.Document) []string {
		types := p.QueryRootTypes(doc)
		out := make([]string, len(types))
		for i, t := range types {
			out[i] = t.String()
		}
		return out
	}
}
