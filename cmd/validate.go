package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/monitoring"
)

var validateQuiet bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check corpus-wide invariants",
	Long:  "Checks ids, periods, scores, pattern tags, denial statuses and knowledge references. Exits non-zero only when errors are found.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeCorpus); err != nil {
			return err
		}
		ctx := cmd.Context()
		c := newCorpus()

		records, rejected, err := c.LoadAll(ctx)
		if err != nil {
			return err
		}
		knowledge, err := knowledgeLoader(c)()
		if err != nil {
			return err
		}

		issues := append(monitoring.SchemaIssues(rejected), monitoring.NewValidator(nil).Validate(records, knowledge...)...)

		out := cmd.OutOrStdout()
		for _, i := range issues {
			if validateQuiet && i.Severity == monitoring.SeverityWarning {
				continue
			}
			fmt.Fprintln(out, i)
		}
		errs, warns := issues.Count(monitoring.SeverityError), issues.Count(monitoring.SeverityWarning)
		fmt.Fprintf(out, "%d records: %d errors, %d warnings\n", len(records)+len(rejected), errs, warns)

		if issues.HasErrors() {
			cmd.SilenceUsage = true
			return eris.Errorf("validate: %d errors", errs)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&validateQuiet, "quiet", "q", false, "print errors only")
	rootCmd.AddCommand(validateCmd)
}
