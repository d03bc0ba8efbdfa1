package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/monitoring"
	"github.com/sells-group/hpi-cli/internal/server"
	"github.com/sells-group/hpi-cli/internal/watch"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the corpus over a read-only HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeServe); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "serve"))

		ledger, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer ledger.Close() //nolint:errcheck

		c := newCorpus()
		metrics := monitoring.NewMetrics()
		collector := monitoring.NewCollector(c, ledger, nil, knowledgeLoader(c))
		checker := monitoring.NewChecker(collector, metrics, cfg.Monitoring.Interval())

		srv := server.New(c, server.WithMetrics(metrics, checker), server.WithLogger(log))
		if err := srv.Reload(ctx); err != nil {
			return err
		}
		go checker.Run(ctx)

		if serveWatch {
			w := watch.New(c.EventsDir(), func(ctx context.Context, changed []string) error {
				log.Info("reloading corpus", zap.Strings("files", changed))
				return srv.Reload(ctx)
			}, watch.WithDebounce(cfg.Watch.Debounce()), watch.WithLogger(log))
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop() //nolint:errcheck
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the corpus when records change")
	rootCmd.AddCommand(serveCmd)
}
