package monitoring

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/pattern"
	"github.com/sells-group/hpi-cli/internal/scorer"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Validation checks.
const (
	CheckID           = "id"
	CheckPeriod       = "period"
	CheckScores       = "scores"
	CheckPatternTags  = "pattern_tags"
	CheckDenialStatus = "denial_status"
	CheckKnowledge    = "knowledge"
	CheckSchema       = "schema"
)

// Issue is one finding against a record or knowledge entry.
type Issue struct {
	Severity Severity `json:"severity"`
	Record   string   `json:"record"`
	Check    string   `json:"check"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%-7s %s [%s] %s", i.Severity, i.Record, i.Check, i.Message)
}

// Issues is the result of a validation run.
type Issues []Issue

// Count returns the number of issues with severity s.
func (is Issues) Count(s Severity) int {
	n := 0
	for _, i := range is {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue is an error.
func (is Issues) HasErrors() bool {
	return is.Count(SeverityError) > 0
}

// SchemaIssues reports each record a load left out because its fields do
// not fit the event schema.
func SchemaIssues(rejected []corpus.Rejected) Issues {
	issues := make(Issues, 0, len(rejected))
	for _, r := range rejected {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Record:   r.Stem,
			Check:    CheckSchema,
			Message:  r.Err.Error(),
		})
	}
	return issues
}

// Validator checks corpus-wide invariants.
type Validator struct {
	tagger *pattern.Tagger
}

// NewValidator creates a Validator. A nil tagger uses the default
// taxonomy.
func NewValidator(tagger *pattern.Tagger) *Validator {
	if tagger == nil {
		tagger = pattern.NewTagger(nil)
	}
	return &Validator{tagger: tagger}
}

// Validate checks every record and the knowledge lists against them.
// Issues are ordered by record, then check.
func (v *Validator) Validate(records []*corpus.Record, knowledge ...[]model.KnowledgeEntry) Issues {
	var issues Issues
	add := func(sev Severity, record, check, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: sev,
			Record:   record,
			Check:    check,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[string]string, len(records))
	for _, r := range records {
		e := r.Event()

		switch prev, dup := seen[e.ID]; {
		case e.ID == "":
			add(SeverityError, r.Stem, CheckID, "missing id")
		case dup:
			add(SeverityError, r.Stem, CheckID, "id %q already used by %s", e.ID, prev)
		default:
			seen[e.ID] = r.Stem
		}

		if e.Period.HasStart && e.Period.HasEnd && e.Period.Start > e.Period.End {
			add(SeverityError, r.Stem, CheckPeriod, "start %d after end %d", e.Period.Start, e.Period.End)
		}

		for _, c := range sortedKeys(e.Metrics.Scores) {
			b, ok := e.Metrics.Breakdowns[c]
			if !ok {
				add(SeverityError, r.Stem, CheckScores, "score %s has no breakdown", c)
				continue
			}
			if got, want := e.Metrics.Scores[c], scorer.Score(b); got != want {
				add(SeverityError, r.Stem, CheckScores, "score %s is %d, breakdown gives %d", c, got, want)
			}
		}
		for _, c := range sortedKeys(e.Metrics.Breakdowns) {
			if _, ok := e.Metrics.Scores[c]; !ok {
				add(SeverityWarning, r.Stem, CheckScores, "breakdown %s has no score", c)
			}
		}

		if want := v.tagger.Detect(e); !slices.Equal(e.Analysis.PatternTags, want) {
			add(SeverityError, r.Stem, CheckPatternTags, "stored [%s], derived [%s]",
				strings.Join(e.Analysis.PatternTags, ", "), strings.Join(want, ", "))
		}

		if e.DenialStatus != "" && !e.DenialStatus.Valid() {
			add(SeverityError, r.Stem, CheckDenialStatus, "unknown status %q", e.DenialStatus)
		}
	}

	for _, list := range knowledge {
		for _, k := range list {
			if k.ConnectedEvent == "" {
				continue
			}
			if _, ok := seen[k.ConnectedEvent]; !ok {
				ref := k.ID
				if ref == "" {
					ref = k.Name
				}
				add(SeverityWarning, ref, CheckKnowledge, "connected_event %q matches no record", k.ConnectedEvent)
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Record != issues[j].Record {
			return issues[i].Record < issues[j].Record
		}
		return issues[i].Check < issues[j].Check
	})
	return issues
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
