package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the "open" subcommand.
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <file>",
		Short: "Parse a Truth document and summarize its faults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newProgram(args[0])
			if err != nil {
				return err
			}
			doc, err := openFile(p, args[0])
			if err != nil {
				return err
			}

			count := 0
			for _, st := range doc.Statements {
				count += len(st.Faults)
			}
			fmt.Printf("opened %s: %d statements, %d faults\n", args[0], len(doc.Statements), count)
			return nil
		},
	}
}
