package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Inspect or reset the list of photos already shown",
}

var exclusionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List remembered photo ids, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := newEngine(cfg, nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		ids := eng.orchestrator.Exclusions().All()
		out := cmd.OutOrStdout()
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		fmt.Fprintf(out, "%d remembered (capacity %d)\n", len(ids), cfg.Engine.ExclusionCapacity)
		return nil
	},
}

var exclusionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every photo shown so far",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := newEngine(cfg, nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		// The tracker was loaded clean, so Close has nothing to write back.
		n := eng.orchestrator.Exclusions().Len()
		if err := eng.store.ClearExclusions(); err != nil {
			return fmt.Errorf("clearing exclusions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d remembered photos\n", n)
		return nil
	},
}

func init() {
	exclusionsCmd.AddCommand(exclusionsShowCmd, exclusionsClearCmd)
}
