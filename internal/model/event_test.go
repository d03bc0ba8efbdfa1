package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdown_PreservesOrder(t *testing.T) {
	t.Parallel()

	raw := `{"policy":true,"state_involvement":false,"propaganda":true,"broad_targeting":true}`
	var b Breakdown
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, []string{"policy", "state_involvement", "propaganda", "broad_targeting"}, b.Keys())
	assert.Equal(t, 3, b.TrueCount())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestBreakdown_NonBoolIsFalse(t *testing.T) {
	t.Parallel()

	var b Breakdown
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":"yes","c":true}`), &b))

	v, ok := b.Get("a")
	assert.True(t, ok)
	assert.False(t, v)
	assert.Equal(t, 1, b.TrueCount())
}

func TestBreakdown_RejectsArray(t *testing.T) {
	t.Parallel()

	var b Breakdown
	assert.Error(t, json.Unmarshal([]byte(`[true,false]`), &b))
}

func TestBreakdown_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	b := Breakdown{{Key: "a", Value: true}}
	c := b.Clone()
	c[0].Value = false
	assert.True(t, b[0].Value)
}

func TestGeography_StringOrObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Geography
	}{
		{"string", `"Europe / Anatolia"`, Geography{Region: "Europe / Anatolia"}},
		{"object", `{"region":"Africa (Central)","country":"Rwanda"}`, Geography{Region: "Africa (Central)", Country: "Rwanda"}},
		{"null", `null`, Geography{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var g Geography
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &g))
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestRationales_DocumentOrder(t *testing.T) {
	t.Parallel()

	var r Rationales
	require.NoError(t, json.Unmarshal([]byte(`{"profit":"p","ideology":"i","complicity":"c"}`), &r))
	assert.Equal(t, []string{"p", "i", "c"}, r.Texts())

	text, ok := r.Get("ideology")
	assert.True(t, ok)
	assert.Equal(t, "i", text)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"profit":"p","ideology":"i","complicity":"c"}`, string(out))
}

func TestEvent_Unmarshal(t *testing.T) {
	t.Parallel()

	raw := `{
  "id": "armenian_genocide_1915",
  "name": "Armenian Genocide",
  "period": {"start": 1915, "end": 1923},
  "geography": {"region": "Middle East / Anatolia"},
  "participants": {"perpetrators": ["Ottoman Empire"]},
  "metrics": {
    "mortality": {"min": 600000, "max": 1500000, "note": "estimates vary"},
    "breakdowns": {"ideology": {"purity_ideal": true, "dehumanization": true}},
    "scores": {"ideology": 100},
    "rationales": {"ideology": "Turkification"}
  },
  "analysis": {"tier": "TOTAL ERASURE", "pattern_tags": ["DEHUMANIZATION"]},
  "denial_status": "denied",
  "extra_field": {"kept": true}
}`
	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, "armenian_genocide_1915", e.ID)
	assert.Equal(t, 1915, e.Period.Start)
	assert.Equal(t, "Middle East / Anatolia", e.Geography.Region)
	assert.Equal(t, int64(1500000), e.Metrics.Mortality.Max)
	assert.Equal(t, 2, e.Metrics.Breakdowns["ideology"].TrueCount())
	assert.Equal(t, TierTotalErasure, e.Analysis.Tier)
	assert.True(t, e.Analysis.HasPatternTag("DEHUMANIZATION"))
	assert.Equal(t, DenialDenied, e.DenialOrUnknown())
}

func TestEvent_Defaults(t *testing.T) {
	t.Parallel()

	var e Event
	assert.Equal(t, TierUnknown, e.Analysis.TierOrUnknown())
	assert.Equal(t, DenialUnknown, e.DenialOrUnknown())
	assert.Equal(t, 0, e.IndexScore())
}

func TestEvent_IndexScore(t *testing.T) {
	t.Parallel()

	e := Event{Metrics: Metrics{Scores: map[string]int{
		CategorySystematic: 100,
		CategoryProfit:     50,
		CategoryIdeology:   50,
		CategoryComplicity: 50,
	}}}
	// 250 / 4 = 62.5 rounds up.
	assert.Equal(t, 63, e.IndexScore())
}

func TestTier_ShortLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Erasure", TierTotalErasure.ShortLabel())
	assert.Equal(t, "Industrial", TierIndustrial.ShortLabel())
	assert.Equal(t, "Collapse", TierContinental.ShortLabel())
	assert.Equal(t, "Profit", TierProfitDriven.ShortLabel())
	assert.Equal(t, "Chaotic", TierChaotic.ShortLabel())
	assert.Equal(t, "SOMETHING ELSE", Tier("SOMETHING ELSE").ShortLabel())
}

func TestDenialStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range KnownDenialStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.True(t, DenialUnknown.Valid())
	assert.False(t, DenialStatus("forgotten").Valid())
}

func TestRunCounts_Add(t *testing.T) {
	t.Parallel()

	var c RunCounts
	c.Add(OutcomeModified)
	c.Add(OutcomeModified)
	c.Add(OutcomeSkipped)
	c.Add(OutcomeFailed)
	c.Add(OutcomeUnchanged)
	assert.Equal(t, RunCounts{Modified: 2, Unchanged: 1, Skipped: 1, Failed: 1}, c)
	assert.Equal(t, 5, c.Total())
}

func TestKnowledgeEntry_DriverLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Religious", KnowledgeEntry{Driver: "religious_ideology"}.DriverLabel())
	assert.Equal(t, "Unknown", KnowledgeEntry{}.DriverLabel())
}
