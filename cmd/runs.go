package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect annotation pass history",
	Long:  "Commands for listing and viewing the runs recorded in the ledger.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pass runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeLedger); err != nil {
			return err
		}

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pass, _ := cmd.Flags().GetString("pass")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Pass:   pass,
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its per-record outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeLedger); err != nil {
			return err
		}

		st, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		items, err := st.ListItems(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(runDetail{Run: run, Items: items})
		}
		formatRunDetail(cmd.OutOrStdout(), run, items)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("pass", "", "filter by pass name (descriptions, rationales, ...)")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().Bool("json", false, "print the run as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// runDetail is the JSON shape of runs show.
type runDetail struct {
	*model.Run
	Items []model.RunItem `json:"items"`
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPASS\tSTATUS\tMOD\tUNCH\tSKIP\tFAIL\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t---\t----\t----\t----\t-------\t--------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Pass,
			r.Status,
			r.Counts.Modified,
			r.Counts.Unchanged,
			r.Counts.Skipped,
			r.Counts.Failed,
			r.StartedAt.Format("2006-01-02 15:04"),
			runDuration(r),
		)
	}
	_ = w.Flush()
}

// formatRunDetail writes a run header followed by its non-trivial items.
func formatRunDetail(out io.Writer, r *model.Run, items []model.RunItem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Pass:\t%s\n", r.Pass)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Started:\t%s\n", r.StartedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", runDuration(*r))
	_, _ = fmt.Fprintf(w, "Records:\t%d (%d modified, %d unchanged, %d skipped, %d failed)\n",
		r.Counts.Total(), r.Counts.Modified, r.Counts.Unchanged, r.Counts.Skipped, r.Counts.Failed)
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", r.Error)
	}
	_ = w.Flush()

	var notable []model.RunItem
	for _, it := range items {
		if it.Outcome == model.OutcomeSkipped || it.Outcome == model.OutcomeFailed {
			notable = append(notable, it)
		}
	}
	if len(notable) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RECORD\tOUTCOME\tDETAIL")
	for _, it := range notable {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", it.Record, it.Outcome, it.Detail)
	}
	_ = w.Flush()
}

// runDuration is empty for runs that have not finished.
func runDuration(r model.Run) string {
	if r.FinishedAt == nil {
		return ""
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
