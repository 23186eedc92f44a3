package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/polarstock/internal/search"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the built-in topics offered as suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := search.DefaultCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range catalog.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}
