package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hpi-cli/internal/model"
)

// TemplateName is the skeleton record excluded from the index.
const TemplateName = "_template.json"

// loadConcurrency bounds parallel file reads in LoadAll.
const loadConcurrency = 8

// Store is a directory of event records plus the index file listing them.
type Store struct {
	root      string
	eventsDir string
	indexPath string
}

// New creates a Store. eventsDir and indexPath are resolved against root
// when relative.
func New(root, eventsDir, indexPath string) *Store {
	return &Store{
		root:      root,
		eventsDir: resolve(root, eventsDir),
		indexPath: resolve(root, indexPath),
	}
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Root returns the project root.
func (s *Store) Root() string { return s.root }

// EventsDir returns the directory holding the records.
func (s *Store) EventsDir() string { return s.eventsDir }

// IndexPath returns the location of the index file.
func (s *Store) IndexPath() string { return s.indexPath }

// Eligible reports whether a file name takes part in batch passes:
// JSON files not starting with an underscore and not containing "template".
func Eligible(name string) bool {
	return strings.HasSuffix(name, ".json") &&
		!strings.HasPrefix(name, "_") &&
		!strings.Contains(name, "template")
}

// List returns the eligible record paths in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.eventsDir)
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: read dir %s", s.eventsDir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Eligible(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.eventsDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads and parses one record.
func (s *Store) Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: read %s", path)
	}
	return Parse(path, data)
}

// Rejected is a record left out of a load because its fields do not fit
// model.Event.
type Rejected struct {
	Path string
	Name string
	Stem string
	Err  error
}

// LoadAll reads every eligible record. Files are read in parallel; the
// result keeps the sorted listing order. Records failing with ErrSchema
// are returned in rejected and left out of records; any other read or
// parse error fails the call.
func (s *Store) LoadAll(ctx context.Context) (records []*Record, rejected []Rejected, err error) {
	paths, err := s.List()
	if err != nil {
		return nil, nil, err
	}

	loaded := make([]*Record, len(paths))
	failed := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.Load(p)
			if errors.Is(err, ErrSchema) {
				failed[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	records = make([]*Record, 0, len(paths))
	for i, p := range paths {
		if failed[i] != nil {
			name := filepath.Base(p)
			rejected = append(rejected, Rejected{
				Path: p,
				Name: name,
				Stem: strings.TrimSuffix(name, filepath.Ext(name)),
				Err:  failed[i],
			})
			continue
		}
		records = append(records, loaded[i])
	}
	return records, rejected, nil
}

// Events loads every eligible record and returns the typed views along
// with the records rejected by the schema.
func (s *Store) Events(ctx context.Context) ([]*model.Event, []Rejected, error) {
	records, rejected, err := s.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return EventsOf(records), rejected, nil
}

// EventsOf returns the typed views of records.
func EventsOf(records []*Record) []*model.Event {
	events := make([]*model.Event, len(records))
	for i, r := range records {
		events[i] = r.Event()
	}
	return events
}

// Save writes the record if its formatted bytes differ from what is on
// disk. It reports whether a write happened.
func (s *Store) Save(r *Record) (bool, error) {
	if !r.Changed() {
		return false, nil
	}
	out := r.Bytes()
	if err := os.WriteFile(r.Path, out, 0o644); err != nil {
		return false, eris.Wrapf(err, "corpus: write %s", r.Name)
	}
	r.orig = out
	return true, nil
}

// IndexEntries returns the index listing: every *.json under the events
// directory except the template, as sorted forward-slash paths relative
// to the project root.
func (s *Store) IndexEntries() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.eventsDir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "corpus: glob events")
	}
	entries := make([]string, 0, len(matches))
	for _, m := range matches {
		if filepath.Base(m) == TemplateName {
			continue
		}
		rel, err := filepath.Rel(s.root, m)
		if err != nil {
			return nil, eris.Wrapf(err, "corpus: relative path %s", m)
		}
		entries = append(entries, filepath.ToSlash(rel))
	}
	sort.Strings(entries)
	return entries, nil
}

// WriteIndex regenerates the index file from the directory listing and
// returns the number of entries written.
func (s *Store) WriteIndex() (int, error) {
	entries, err := s.IndexEntries()
	if err != nil {
		return 0, err
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, eris.Wrap(err, "corpus: marshal index")
	}
	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0o755); err != nil {
		return 0, eris.Wrap(err, "corpus: create index dir")
	}
	if err := os.WriteFile(s.indexPath, out, 0o644); err != nil {
		return 0, eris.Wrapf(err, "corpus: write %s", s.indexPath)
	}
	return len(entries), nil
}

// LoadKnowledge reads a knowledge lost/saved list. A missing file yields
// an empty list.
func (s *Store) LoadKnowledge(path string) ([]model.KnowledgeEntry, error) {
	data, err := os.ReadFile(resolve(s.root, path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: read %s", path)
	}
	var entries []model.KnowledgeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "corpus: parse %s", path)
	}
	return entries, nil
}
