package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/pattern"
	"github.com/sells-group/hpi-cli/internal/scorer"
)

const holodomorRecord = `{
  "id": "holodomor_1932",
  "name": "Holodomor (Ukrainian Famine)",
  "period": {
    "start": 1932,
    "end": 1933
  },
  "metrics": {
    "mortality": {
      "min": 3500000,
      "max": 7000000,
      "note": "Famine deaths"
    },
    "breakdowns": {
      "systematic_intensity": {
        "policy": true,
        "propaganda": true,
        "broad_targeting": false,
        "camps": false
      },
      "ideology": {
        "purity_ideal": true,
        "historical_claim": true,
        "higher_purpose": false,
        "victim_narrative": false,
        "utopianism": true
      }
    },
    "scores": {
      "systematic_intensity": 50,
      "ideology": 60
    }
  },
  "analysis": {
    "tier": "INDUSTRIAL MEGA-EVENT",
    "warning_signs": [
      "old sign"
    ]
  },
  "denial_status": "denied"
}
`

func parseRecord(t *testing.T, stem, content string) *corpus.Record {
	t.Helper()
	r, err := corpus.Parse("/events/"+stem+".json", []byte(content))
	require.NoError(t, err)
	return r
}

func topKeys(r *corpus.Record) []string {
	var keys []string
	gjson.ParseBytes(r.Raw()).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	return keys
}

func TestDescriptions(t *testing.T) {
	t.Parallel()
	p := Descriptions(loadTables(t))
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := p.Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "added description", detail)
	assert.Contains(t, r.Event().Description, "Soviet-engineered famine")
	assert.Equal(t, []string{"id", "name", "description", "period", "metrics", "analysis", "denial_status"}, topKeys(r))

	_, err = p.Apply(context.Background(), r)
	assert.True(t, errors.Is(err, ErrSkip))
}

func TestDescriptions_NoMapping(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "atlantis", holodomorRecord)

	_, err := Descriptions(loadTables(t)).Apply(context.Background(), r)
	assert.True(t, errors.Is(err, ErrNoMapping))
	assert.Equal(t, model.OutcomeSkipped, Outcome(err))
	assert.False(t, r.Get("description").Exists())
}

func TestRationales(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := Rationales(loadTables(t)).Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "rationales for systematic_intensity, profit, ideology, complicity", detail)

	text, ok := r.Event().Metrics.Rationales.Get("ideology")
	require.True(t, ok)
	assert.Equal(t, "Class warfare against 'kulaks' combined with suppression of Ukrainian nationalism.", text)
}

func TestWarningSigns(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", holodomorRecord)

	_, err := WarningSigns(loadTables(t)).Apply(context.Background(), r)
	require.NoError(t, err)

	a := r.Event().Analysis
	assert.Equal(t, []string{
		"Grain quotas despite crop failure",
		"Borders closed to prevent escape",
		"Denial of famine existence",
	}, a.WarningSigns)
	assert.Equal(t, "Stalinist collectivization, suppression of Ukrainian nationalism, ideological rigidity", a.RootCauses)
	assert.Equal(t, model.TierIndustrial, a.Tier)
}

func TestGenerational(t *testing.T) {
	t.Parallel()
	p := Generational(loadTables(t))
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := p.Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, " 50% →  75% (↑25)", detail)

	b := r.Event().Metrics.Breakdowns[model.CategorySystematic]
	assert.Equal(t, []string{"policy", "propaganda", "generational_targeting", "camps"}, b.Keys())
	assert.Equal(t, int64(75), r.Get("metrics.scores.systematic_intensity").Int())

	first := r.Bytes()
	detail, err = p.Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, " 75% →  75% (=0)", detail)
	assert.Equal(t, string(first), string(r.Bytes()))
}

func TestGenerational_MissingBreakdown(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", `{"id": "holodomor_1932", "metrics": {"breakdowns": {}}}`)

	_, err := Generational(loadTables(t)).Apply(context.Background(), r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scorer.ErrMissingBreakdown))
	assert.Equal(t, model.OutcomeSkipped, Outcome(err))
}

func TestIdeology(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := Ideology(loadTables(t)).Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, " 60% →  60% (=0)", detail)

	b := r.Event().Metrics.Breakdowns[model.CategoryIdeology]
	assert.Equal(t, IdeologyKeys, b.Keys())
	for key, want := range map[string]bool{
		"purity_ideal":      true,
		"dehumanization":    true,
		"mass_mobilization": false,
		"victim_narrative":  false,
		"utopianism":        true,
	} {
		got, ok := b.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestIdeology_CreatesBreakdown(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "rwandan_genocide", `{
  "id": "rwandan_genocide_1994",
  "metrics": {
    "breakdowns": {
      "systematic_intensity": {"policy": true}
    },
    "scores": {"systematic_intensity": 100}
  }
}`)

	_, err := Ideology(loadTables(t)).Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, IdeologyKeys, r.Event().Metrics.Breakdowns[model.CategoryIdeology].Keys())
	assert.Equal(t, int64(40), r.Get("metrics.scores.ideology").Int())
}

func TestRescore(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := Rescore().Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "scores consistent", detail)

	require.NoError(t, r.Set("metrics.breakdowns.ideology.victim_narrative", true))
	detail, err = Rescore().Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "rescored ideology", detail)
	assert.Equal(t, int64(80), r.Get("metrics.scores.ideology").Int())
}

func TestPatternTags(t *testing.T) {
	t.Parallel()
	r := parseRecord(t, "holodomor", holodomorRecord)

	detail, err := PatternTags(pattern.NewTagger(nil)).Apply(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "DELIBERATE_STARVATION, ECONOMIC_CRISIS", detail)
	assert.Equal(t, []string{"DELIBERATE_STARVATION", "ECONOMIC_CRISIS"}, r.Event().Analysis.PatternTags)
}

func TestOutcome(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want model.Outcome
	}{
		{nil, model.OutcomeModified},
		{ErrSkip, model.OutcomeSkipped},
		{ErrNoMapping, model.OutcomeSkipped},
		{ErrNoMatch, model.OutcomeSkipped},
		{scorer.ErrMissingBreakdown, model.OutcomeSkipped},
		{errors.New("disk full"), model.OutcomeFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "%v", tt.err)
	}
}
