package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/annotate"
	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/resilience"
	"github.com/sells-group/hpi-cli/pkg/wikipedia"
)

var linksManual bool

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Fill wikipedia_url from encyclopedia search",
	Long:  "Searches the encyclopedia for every record without a wikipedia_url. Records with no match are listed for manual review at the end.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeLinks); err != nil {
			return err
		}
		log := zap.L().With(zap.String("command", "links"))

		client := wikipedia.NewClient(
			wikipedia.WithBaseURL(cfg.Wikipedia.BaseURL),
			wikipedia.WithUserAgent(cfg.Wikipedia.UserAgent),
			wikipedia.WithLimit(cfg.Wikipedia.Limit),
			wikipedia.WithTimeout(cfg.Wikipedia.Timeout()),
			wikipedia.WithDelay(cfg.Wikipedia.Delay()),
		)
		cb := resilience.NewCircuitBreaker(resilience.FromCircuitConfig(
			cfg.Wikipedia.FailureThreshold, cfg.Wikipedia.ResetTimeoutSecs))

		opts := []annotate.WikipediaOption{
			annotate.WithBreaker(cb),
			annotate.WithLogger(log),
		}
		if linksManual {
			t, err := loadTables()
			if err != nil {
				return err
			}
			opts = append(opts, annotate.WithManualSearch(t))
		}

		pass := annotate.NewWikipediaLinks(client, resilience.NewReviewQueue(), opts...)
		if _, err := runPass(cmd, pass); err != nil {
			return err
		}

		formatReview(cmd.OutOrStdout(), pass.Review().Entries())
		return nil
	},
}

func init() {
	linksCmd.Flags().BoolVar(&linksManual, "manual", false, "search with the curated search terms, visiting only the events they cover")
	rootCmd.AddCommand(linksCmd)
}

// formatReview writes the records left for manual follow-up to w.
func formatReview(out io.Writer, entries []resilience.ReviewEntry) {
	if len(entries) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\n%d records need manual review:\n", len(entries))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RECORD\tNAME\tQUERY\tREASON")
	for _, e := range entries {
		reason := e.Reason
		if e.ErrorType != "" {
			reason = e.ErrorType + ": " + reason
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Record, e.Name, e.Query, reason)
	}
	_ = w.Flush()
}
