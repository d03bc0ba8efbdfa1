package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/hpi-cli/internal/annotate"
	"github.com/sells-group/hpi-cli/internal/pattern"
)

var tagCmd = passCommand("tag", "Derive analysis.pattern_tags for every record",
	func() (annotate.Pass, error) {
		return annotate.PatternTags(pattern.NewTagger(nil)), nil
	})

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Fill curated text fields from the lookup tables",
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Rewrite breakdown indicators and recompute scores",
}

// tablePass adapts a table-driven pass constructor to passCommand.
func tablePass(build func(*annotate.Tables) annotate.Pass) func() (annotate.Pass, error) {
	return func() (annotate.Pass, error) {
		t, err := loadTables()
		if err != nil {
			return nil, err
		}
		return build(t), nil
	}
}

func init() {
	annotateCmd.AddCommand(
		passCommand("descriptions", "Insert a description after the event name",
			tablePass(annotate.Descriptions)),
		passCommand("rationales", "Replace metrics.rationales",
			tablePass(annotate.Rationales)),
		passCommand("warning-signs", "Replace analysis.warning_signs and root_causes",
			tablePass(annotate.WarningSigns)),
	)

	rescoreCmd.AddCommand(
		passCommand("generational", "Swap broad_targeting for generational_targeting",
			tablePass(annotate.Generational)),
		passCommand("ideology", "Rebuild the ideology breakdown",
			tablePass(annotate.Ideology)),
		passCommand("all", "Recompute every score from its breakdown",
			func() (annotate.Pass, error) { return annotate.Rescore(), nil }),
	)

	rootCmd.AddCommand(tagCmd, annotateCmd, rescoreCmd)
}
