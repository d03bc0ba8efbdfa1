package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/config"
	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/report"
	"github.com/sells-group/hpi-cli/internal/watch"
)

var (
	readmeWatch   bool
	readmeDryRun  bool
	readmePreview bool
)

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Regenerate the STATS marker regions of the markdown documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeReport); err != nil {
			return err
		}
		log := zap.L().With(zap.String("command", "readme"))
		out := cmd.OutOrStdout()
		c := newCorpus()

		u := &readmeUpdater{
			corpus:  c,
			out:     out,
			log:     log,
			dryRun:  readmeDryRun,
			preview: readmePreview,
		}
		if err := u.update(cmd.Context()); err != nil {
			return err
		}
		if !readmeWatch {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := watch.New(c.EventsDir(), func(ctx context.Context, changed []string) error {
			log.Info("records changed", zap.Strings("files", changed))
			return u.update(ctx)
		}, watch.WithDebounce(cfg.Watch.Debounce()), watch.WithLogger(log))

		fmt.Fprintf(out, "Watching %s for changes...\n", c.EventsDir())
		return w.Run(ctx)
	},
}

func init() {
	readmeCmd.Flags().BoolVar(&readmeWatch, "watch", false, "regenerate whenever a record changes")
	readmeCmd.Flags().BoolVar(&readmeDryRun, "dry-run", false, "report what would change without writing")
	readmeCmd.Flags().BoolVar(&readmePreview, "preview", false, "render the regenerated documents to the terminal")
	rootCmd.AddCommand(readmeCmd)
}

// readmeUpdater regenerates every configured document from one corpus
// snapshot.
type readmeUpdater struct {
	corpus  *corpus.Store
	out     io.Writer
	log     *zap.Logger
	dryRun  bool
	preview bool
}

func (u *readmeUpdater) update(ctx context.Context) error {
	fmt.Fprintln(u.out, "Loading events...")
	events, rejected, err := u.corpus.Events(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(u.out, "Found %d events\n", len(events))
	reportRejected(u.out, u.log, rejected)

	lost, err := u.corpus.LoadKnowledge(cfg.Data.KnowledgeLost)
	if err != nil {
		return err
	}
	saved, err := u.corpus.LoadKnowledge(cfg.Data.KnowledgeSaved)
	if err != nil {
		return err
	}

	fmt.Fprintln(u.out, "Calculating statistics...")
	gen := report.NewGenerator(events, lost, saved)
	sections := gen.Sections()

	for _, id := range report.DanglingReferences(append(lost, saved...), events) {
		u.log.Warn("knowledge entry references unknown event", zap.String("connected_event", id))
	}

	for _, doc := range cfg.Report.Documents {
		if err := u.updateDocument(dataPath(doc), sections); err != nil {
			return err
		}
	}
	for _, doc := range cfg.Report.KnowledgeDocuments {
		path := dataPath(doc)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			u.log.Debug("knowledge document not found", zap.String("path", path))
			continue
		}
		if err := u.updateDocument(path, sections); err != nil {
			return err
		}
	}
	return nil
}

func (u *readmeUpdater) updateDocument(path string, sections []report.Section) error {
	fmt.Fprintf(u.out, "Reading %s...\n", path)
	doc, err := report.Prepare(path, sections)
	if err != nil {
		return err
	}
	for _, key := range report.Unknown(doc.Before, sections) {
		u.log.Warn("unknown marker left untouched", zap.String("path", path), zap.String("key", key))
	}

	if u.preview {
		if err := renderMarkdown(u.out, doc.After); err != nil {
			return err
		}
	}

	switch {
	case !doc.Changed():
		fmt.Fprintln(u.out, "No changes needed.")
	case u.dryRun:
		fmt.Fprintf(u.out, "Would update %s\n", path)
	default:
		if _, err := doc.Write(); err != nil {
			return err
		}
		fmt.Fprintf(u.out, "Done! %s updated.\n", path)
	}
	return nil
}

func renderMarkdown(out io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return eris.Wrap(err, "readme: create renderer")
	}
	rendered, err := r.Render(md)
	if err != nil {
		return eris.Wrap(err, "readme: render")
	}
	_, err = io.WriteString(out, rendered)
	return err
}
