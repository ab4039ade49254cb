package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFaultsCmd creates the "faults" subcommand.
func NewFaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faults <file>",
		Short: "List every fault in a Truth document",
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

			uriForm := ""
			if doc.HasURI {
				uriForm = doc.SelfURI.RenderedProtocol()
			}
			n := 0
			for _, st := range doc.Statements {
				for _, f := range st.Faults {
					fmt.Println(f.Render(uriForm, st.Line))
					n++
				}
			}
			if n == 0 {
				fmt.Println("(no faults)")
			}
			return nil
		},
	}
}
