package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTreeCmd creates the "tree" subcommand.
func NewTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Print a Truth document's reconstructed source text",
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
			fmt.Println(doc.ToString(true))
			return nil
		},
	}
}
