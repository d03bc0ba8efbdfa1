package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportFilter export.Filter
	exportOrder  export.Order
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the events table as CSV or XLSX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeCorpus); err != nil {
			return err
		}
		if err := exportFilter.Validate(); err != nil {
			return err
		}
		if err := exportOrder.Validate(); err != nil {
			return err
		}

		events, rejected, err := newCorpus().Events(cmd.Context())
		if err != nil {
			return err
		}
		reportRejected(cmd.OutOrStdout(), zap.L(), rejected)
		events = exportOrder.Sort(exportFilter.Apply(events))

		n, err := export.WriteFile(exportOutput, exportFormat, events)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", n, exportOutput)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFormat, "format", "", "output format: csv or xlsx (default from the output extension)")
	f.StringVarP(&exportOutput, "output", "o", "events.csv", "output file")
	f.StringVar(&exportFilter.Period, "period", "", "ancient, medieval, colonial or modern")
	f.StringVar(&exportFilter.Tier, "tier", "", "tier, e.g. \"TOTAL ERASURE\"")
	f.StringVar(&exportFilter.Denial, "denial", "", "denial status")
	f.StringVar(&exportFilter.Search, "search", "", "substring over name, region, country, tier, notes and parties")
	f.StringVar(&exportOrder.Field, "sort", export.SortPeriod, "name, period, deaths, index or region")
	f.StringVar(&exportOrder.Direction, "dir", export.Asc, "asc or desc")
	rootCmd.AddCommand(exportCmd)
}
