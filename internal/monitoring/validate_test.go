package monitoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
)

const cleanRecord = `{
  "id": "clean_1900",
  "name": "Clean Event",
  "period": {"start": 1900, "end": 1905},
  "geography": "Europe",
  "metrics": {
    "mortality": {"min": 1000, "max": 3000},
    "breakdowns": {"profit": {"land": true, "labor": false}},
    "scores": {"profit": 50}
  },
  "analysis": {"tier": "TOTAL ERASURE", "pattern_tags": []},
  "denial_status": "denied"
}`

func parseRecord(t *testing.T, stem, data string) *corpus.Record {
	t.Helper()
	r, err := corpus.Parse(stem+".json", []byte(data))
	require.NoError(t, err)
	return r
}

func TestValidate_Clean(t *testing.T) {
	t.Parallel()

	issues := NewValidator(nil).Validate([]*corpus.Record{parseRecord(t, "clean", cleanRecord)})
	assert.Empty(t, issues)
	assert.False(t, issues.HasErrors())
}

func TestValidate_Checks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		check    string
		severity Severity
		message  string
	}{
		{
			name:     "missing id",
			data:     `{"name": "x", "period": {"start": 1, "end": 2}}`,
			check:    CheckID,
			severity: SeverityError,
			message:  "missing id",
		},
		{
			name:     "reversed period",
			data:     `{"id": "p", "period": {"start": 1950, "end": 1940}}`,
			check:    CheckPeriod,
			severity: SeverityError,
			message:  "start 1950 after end 1940",
		},
		{
			name:     "orphan score",
			data:     `{"id": "o", "metrics": {"scores": {"profit": 40}}}`,
			check:    CheckScores,
			severity: SeverityError,
			message:  "score profit has no breakdown",
		},
		{
			name: "stale score",
			data: `{"id": "s", "metrics": {"breakdowns": {"ideology": {"a": true, "b": true, "c": false}},` +
				` "scores": {"ideology": 60}}}`,
			check:    CheckScores,
			severity: SeverityError,
			message:  "score ideology is 60, breakdown gives 66",
		},
		{
			name:     "unscored breakdown",
			data:     `{"id": "u", "metrics": {"breakdowns": {"complicity": {"a": true}}}}`,
			check:    CheckScores,
			severity: SeverityWarning,
			message:  "breakdown complicity has no score",
		},
		{
			name:     "stale pattern tags",
			data:     `{"id": "t", "analysis": {"pattern_tags": ["DEHUMANIZATION"]}}`,
			check:    CheckPatternTags,
			severity: SeverityError,
			message:  "stored [DEHUMANIZATION], derived []",
		},
		{
			name:     "unknown denial status",
			data:     `{"id": "d", "denial_status": "forgotten"}`,
			check:    CheckDenialStatus,
			severity: SeverityError,
			message:  `unknown status "forgotten"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			issues := NewValidator(nil).Validate([]*corpus.Record{parseRecord(t, "rec", tt.data)})
			require.Len(t, issues, 1)
			assert.Equal(t, "rec", issues[0].Record)
			assert.Equal(t, tt.check, issues[0].Check)
			assert.Equal(t, tt.severity, issues[0].Severity)
			assert.Equal(t, tt.message, issues[0].Message)
		})
	}
}

func TestValidate_OpenPeriodIsNotReversed(t *testing.T) {
	t.Parallel()

	r := parseRecord(t, "open", `{"id": "open_1950", "period": {"start": 1950}}`)
	for _, i := range NewValidator(nil).Validate([]*corpus.Record{r}) {
		assert.NotEqual(t, CheckPeriod, i.Check, i.String())
	}
}

func TestSchemaIssues(t *testing.T) {
	t.Parallel()

	issues := SchemaIssues([]corpus.Rejected{{
		Name: "quoted.json",
		Stem: "quoted",
		Err:  errors.New("model: period.start must be a number"),
	}})
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{
		Severity: SeverityError,
		Record:   "quoted",
		Check:    CheckSchema,
		Message:  "model: period.start must be a number",
	}, issues[0])
	assert.True(t, issues.HasErrors())
	assert.Empty(t, SchemaIssues(nil))
}

func TestValidate_DuplicateID(t *testing.T) {
	t.Parallel()

	records := []*corpus.Record{
		parseRecord(t, "first", cleanRecord),
		parseRecord(t, "second", cleanRecord),
	}
	issues := NewValidator(nil).Validate(records)

	require.Len(t, issues, 1)
	assert.Equal(t, "second", issues[0].Record)
	assert.Equal(t, `id "clean_1900" already used by first`, issues[0].Message)
	assert.True(t, issues.HasErrors())
}

func TestValidate_EmptyDenialStatusAllowed(t *testing.T) {
	t.Parallel()

	issues := NewValidator(nil).Validate([]*corpus.Record{parseRecord(t, "e", `{"id": "e"}`)})
	assert.Empty(t, issues)
}

func TestValidate_DanglingKnowledge(t *testing.T) {
	t.Parallel()

	lost := []model.KnowledgeEntry{
		{ID: "library_of_baghdad", Name: "House of Wisdom", ConnectedEvent: "siege_of_baghdad_1258"},
		{ID: "codices", Name: "Maya codices", ConnectedEvent: "clean_1900"},
		{Name: "Oral traditions"},
	}
	saved := []model.KnowledgeEntry{
		{Name: "Timbuktu manuscripts", ConnectedEvent: "missing"},
	}

	issues := NewValidator(nil).Validate([]*corpus.Record{parseRecord(t, "clean", cleanRecord)}, lost, saved)
	require.Len(t, issues, 2)
	assert.False(t, issues.HasErrors())
	assert.Equal(t, 2, issues.Count(SeverityWarning))

	assert.Equal(t, "Timbuktu manuscripts", issues[0].Record)
	assert.Equal(t, "library_of_baghdad", issues[1].Record)
	assert.Equal(t, `connected_event "siege_of_baghdad_1258" matches no record`, issues[1].Message)
}

func TestIssue_String(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Record: "rec", Check: CheckPeriod, Message: "start 2 after end 1"}
	assert.Equal(t, "error   rec [period] start 2 after end 1", i.String())
}
