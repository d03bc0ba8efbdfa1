package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/annotate"
	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/monitoring"
	"github.com/sells-group/hpi-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hpi",
	Short: "Historical Pattern Index corpus tooling",
	Long:  "Tags, scores, annotates, validates and reports on the event records of the Historical Pattern Index, and serves them over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newCorpus returns the record store described by the data config.
func newCorpus() *corpus.Store {
	return corpus.New(cfg.Data.Root, cfg.Data.EventsDir, cfg.Data.IndexPath)
}

// dataPath resolves p against the project root.
func dataPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Data.Root, p)
}

// reportRejected names each record left out of a load so totals built
// from the rest are not mistaken for the whole corpus.
func reportRejected(out io.Writer, log *zap.Logger, rejected []corpus.Rejected) {
	for _, r := range rejected {
		fmt.Fprintf(out, "Skipped %s: %v\n", r.Name, r.Err)
		log.Warn("record rejected", zap.String("record", r.Stem), zap.Error(r.Err))
	}
}

func openLedger(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Ledger.Driver, cfg.Ledger.DatabaseURL)
}

// knowledgeLoader reads the lost and saved knowledge lists on every call.
func knowledgeLoader(c *corpus.Store) monitoring.KnowledgeLoader {
	return func() ([][]model.KnowledgeEntry, error) {
		lost, err := c.LoadKnowledge(cfg.Data.KnowledgeLost)
		if err != nil {
			return nil, err
		}
		saved, err := c.LoadKnowledge(cfg.Data.KnowledgeSaved)
		if err != nil {
			return nil, err
		}
		return [][]model.KnowledgeEntry{lost, saved}, nil
	}
}

// runPass applies p to every record, recording the run in the configured
// ledger.
func runPass(cmd *cobra.Command, p annotate.Pass) (*annotate.Report, error) {
	ctx := cmd.Context()
	if err := cfg.Validate(config.ModeCorpus); err != nil {
		return nil, err
	}

	ledger, err := openLedger(ctx)
	if err != nil {
		return nil, err
	}
	defer ledger.Close() //nolint:errcheck

	runner := annotate.NewRunner(newCorpus(),
		annotate.WithLedger(ledger),
		annotate.WithRunnerLogger(zap.L().With(zap.String("command", cmd.CommandPath()))),
		annotate.WithOutput(cmd.OutOrStdout()),
	)
	return runner.Run(ctx, p)
}

// passCommand builds a command that runs the pass returned by build.
func passCommand(use, short string, build func() (annotate.Pass, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := build()
			if err != nil {
				return err
			}
			_, err = runPass(cmd, p)
			return err
		},
	}
}

func loadTables() (*annotate.Tables, error) {
	return annotate.LoadTables(cfg.Annotate.TablesDir)
}
