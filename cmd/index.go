package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/hpi-cli/internal/config"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Regenerate the record index from the events directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeCorpus); err != nil {
			return err
		}
		c := newCorpus()
		n, err := c.WriteIndex()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", n, c.IndexPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
