// Package model defines the record types shared across the hpi packages.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// DenialStatus describes how a perpetrator state treats an event today.
type DenialStatus string

const (
	DenialDenied       DenialStatus = "denied"
	DenialPartial      DenialStatus = "partial"
	DenialAcknowledged DenialStatus = "acknowledged"
	DenialDisputed     DenialStatus = "disputed"
	DenialSuppressed   DenialStatus = "suppressed"
	DenialUnknown      DenialStatus = "unknown"
)

// KnownDenialStatuses lists the statuses the report buckets events into.
// DenialUnknown is deliberately absent.
var KnownDenialStatuses = []DenialStatus{
	DenialDenied,
	DenialPartial,
	DenialAcknowledged,
	DenialDisputed,
	DenialSuppressed,
}

// Valid reports whether s is one of the six recognized statuses.
func (s DenialStatus) Valid() bool {
	switch s {
	case DenialDenied, DenialPartial, DenialAcknowledged, DenialDisputed, DenialSuppressed, DenialUnknown:
		return true
	}
	return false
}

// Tier is the curators' classification of an event.
type Tier string

const (
	TierTotalErasure Tier = "TOTAL ERASURE"
	TierIndustrial   Tier = "INDUSTRIAL MEGA-EVENT"
	TierContinental  Tier = "CONTINENTAL COLLAPSE"
	TierProfitDriven Tier = "PROFIT-DRIVEN ATTRITION"
	TierChaotic      Tier = "CHAOTIC ATROCITY"
	TierUnknown      Tier = "Unknown"
)

// Tiers lists the known tiers in severity order.
var Tiers = []Tier{TierTotalErasure, TierIndustrial, TierContinental, TierProfitDriven, TierChaotic}

// ShortLabel returns the compact label used in the events table.
// Unknown tiers are returned verbatim.
func (t Tier) ShortLabel() string {
	switch t {
	case TierTotalErasure:
		return "Erasure"
	case TierIndustrial:
		return "Industrial"
	case TierContinental:
		return "Collapse"
	case TierProfitDriven:
		return "Profit"
	case TierChaotic:
		return "Chaotic"
	}
	return string(t)
}

// Score categories present on most records.
const (
	CategorySystematic = "systematic_intensity"
	CategoryProfit     = "profit"
	CategoryIdeology   = "ideology"
	CategoryComplicity = "complicity"
)

// IndexCategories are averaged into the composite index.
var IndexCategories = []string{CategorySystematic, CategoryProfit, CategoryIdeology, CategoryComplicity}

// Event is the typed read view of one record. Writes go through
// corpus.Record so fields unknown to this struct survive.
type Event struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ShortName    string       `json:"short_name,omitempty"`
	Description  string       `json:"description,omitempty"`
	Period       Period       `json:"period"`
	Geography    Geography    `json:"geography"`
	Participants Participants `json:"participants"`
	Metrics      Metrics      `json:"metrics"`
	Analysis     Analysis     `json:"analysis"`
	DenialStatus DenialStatus `json:"denial_status"`
	WikipediaURL string       `json:"wikipedia_url,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
}

// Period spans start..end in years; negative years are BCE. HasStart
// and HasEnd report whether each bound was present in the document.
type Period struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Note  string `json:"note,omitempty"`

	HasStart bool `json:"-"`
	HasEnd   bool `json:"-"`
}

// NewPeriod returns a period with both bounds present.
func NewPeriod(start, end int) Period {
	return Period{Start: start, End: end, HasStart: true, HasEnd: true}
}

// UnmarshalJSON implements json.Unmarshaler. Whole-valued floats such as
// 1915.0 are accepted as years.
func (p *Period) UnmarshalJSON(data []byte) error {
	res, err := object(data, "period")
	if err != nil || !res.Exists() {
		*p = Period{}
		return err
	}
	var out Period
	if v := res.Get("start"); v.Exists() && v.Type != gjson.Null {
		n, err := wholeNumber(v, "period.start")
		if err != nil {
			return err
		}
		out.Start, out.HasStart = int(n), true
	}
	if v := res.Get("end"); v.Exists() && v.Type != gjson.Null {
		n, err := wholeNumber(v, "period.end")
		if err != nil {
			return err
		}
		out.End, out.HasEnd = int(n), true
	}
	out.Note = res.Get("note").String()
	*p = out
	return nil
}

// Participants names the actors involved.
type Participants struct {
	Perpetrators []string `json:"perpetrators,omitempty"`
	Victims      []string `json:"victims,omitempty"`
}

// Mortality holds the death-toll bounds.
type Mortality struct {
	Min  int64  `json:"min"`
	Max  int64  `json:"max"`
	Note string `json:"note,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Whole-valued floats such as
// 1500000.0 are accepted as counts.
func (m *Mortality) UnmarshalJSON(data []byte) error {
	res, err := object(data, "mortality")
	if err != nil || !res.Exists() {
		*m = Mortality{}
		return err
	}
	var out Mortality
	if v := res.Get("min"); v.Exists() && v.Type != gjson.Null {
		if out.Min, err = wholeNumber(v, "mortality.min"); err != nil {
			return err
		}
	}
	if v := res.Get("max"); v.Exists() && v.Type != gjson.Null {
		if out.Max, err = wholeNumber(v, "mortality.max"); err != nil {
			return err
		}
	}
	out.Note = res.Get("note").String()
	*m = out
	return nil
}

// object parses data as a JSON object. A null yields a zero Result and
// no error.
func object(data []byte, what string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, eris.Errorf("model: invalid %s json", what)
	}
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return gjson.Result{}, nil
	}
	if !res.IsObject() {
		return gjson.Result{}, eris.Errorf("model: %s must be an object, got %s", what, res.Type)
	}
	return res, nil
}

// wholeNumber reads an integral JSON number, accepting a float encoding
// with no fractional part.
func wholeNumber(v gjson.Result, field string) (int64, error) {
	if v.Type != gjson.Number {
		return 0, eris.Errorf("model: %s must be a number, got %s %s", field, v.Type, v.Raw)
	}
	if v.Num != math.Trunc(v.Num) {
		return 0, eris.Errorf("model: %s must be a whole number, got %s", field, v.Raw)
	}
	return v.Int(), nil
}

// Metrics groups mortality and the scored breakdowns.
type Metrics struct {
	Mortality  Mortality            `json:"mortality"`
	Breakdowns map[string]Breakdown `json:"breakdowns,omitempty"`
	Scores     map[string]int       `json:"scores,omitempty"`
	Rationales Rationales           `json:"rationales,omitempty"`
}

// Analysis holds the curated and derived interpretation fields.
type Analysis struct {
	Tier         Tier     `json:"tier"`
	WarningSigns []string `json:"warning_signs,omitempty"`
	RootCauses   string   `json:"root_causes,omitempty"`
	PatternNote  string   `json:"pattern_note,omitempty"`
	PatternTags  []string `json:"pattern_tags,omitempty"`
}

// TierOrUnknown returns the tier, or TierUnknown when unset.
func (a Analysis) TierOrUnknown() Tier {
	if a.Tier == "" {
		return TierUnknown
	}
	return a.Tier
}

// HasPatternTag reports whether tag is among the derived pattern tags.
func (a Analysis) HasPatternTag(tag string) bool {
	for _, t := range a.PatternTags {
		if t == tag {
			return true
		}
	}
	return false
}

// DenialOrUnknown returns the denial status, or DenialUnknown when unset.
func (e *Event) DenialOrUnknown() DenialStatus {
	if e.DenialStatus == "" {
		return DenialUnknown
	}
	return e.DenialStatus
}

// IndexScore is the rounded mean of the four category scores.
func (e *Event) IndexScore() int {
	sum := 0
	for _, c := range IndexCategories {
		sum += e.Metrics.Scores[c]
	}
	// Round half away from zero; scores are never negative.
	return (sum*10/len(IndexCategories) + 5) / 10
}

// Geography accepts either a bare region string or an object with a
// region and optional country.
type Geography struct {
	Region  string `json:"region"`
	Country string `json:"country,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Geography) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*g = Geography{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: geography string")
		}
		*g = Geography{Region: s}
		return nil
	}
	type plain Geography
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return eris.Wrap(err, "model: geography object")
	}
	*g = Geography(p)
	return nil
}

// Rationale is one category justification.
type Rationale struct {
	Category string
	Text     string
}

// Rationales keeps the per-category justifications in document order.
type Rationales []Rationale

// Get returns the rationale text for category.
func (r Rationales) Get(category string) (string, bool) {
	for _, x := range r {
		if x.Category == category {
			return x.Text, true
		}
	}
	return "", false
}

// Texts returns the rationale values in document order.
func (r Rationales) Texts() []string {
	out := make([]string, 0, len(r))
	for _, x := range r {
		out = append(out, x.Text)
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rationales) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return eris.New("model: invalid rationales json")
	}
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*r = nil
		return nil
	}
	if !res.IsObject() {
		return eris.Errorf("model: rationales must be an object, got %s", res.Type)
	}
	out := Rationales{}
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, Rationale{Category: key.String(), Text: value.String()})
		return true
	})
	*r = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Rationales) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, x := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(x.Category)
		if err != nil {
			return nil, err
		}
		v, err := marshalText(x.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Indicator is one named boolean inside a breakdown.
type Indicator struct {
	Key   string
	Value bool
}

// Breakdown is an ordered set of boolean sub-indicators. Order is
// significant: it is preserved from the source document and on write.
type Breakdown []Indicator

// Index returns the position of key, or -1.
func (b Breakdown) Index(key string) int {
	for i, ind := range b {
		if ind.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (b Breakdown) Get(key string) (value, ok bool) {
	if i := b.Index(key); i >= 0 {
		return b[i].Value, true
	}
	return false, false
}

// TrueCount returns the number of indicators set to true.
func (b Breakdown) TrueCount() int {
	n := 0
	for _, ind := range b {
		if ind.Value {
			n++
		}
	}
	return n
}

// Keys returns the indicator names in order.
func (b Breakdown) Keys() []string {
	keys := make([]string, len(b))
	for i, ind := range b {
		keys[i] = ind.Key
	}
	return keys
}

// Clone returns an independent copy.
func (b Breakdown) Clone() Breakdown {
	if b == nil {
		return nil
	}
	out := make(Breakdown, len(b))
	copy(out, b)
	return out
}

// UnmarshalJSON implements json.Unmarshaler. Only a JSON true counts as
// true; any other value is stored as false.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return eris.New("model: invalid breakdown json")
	}
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*b = nil
		return nil
	}
	if !res.IsObject() {
		return eris.Errorf("model: breakdown must be an object, got %s", res.Type)
	}
	out := Breakdown{}
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, Indicator{Key: key.String(), Value: value.Type == gjson.True})
		return true
	})
	*b = out
	return nil
}

// MarshalJSON implements json.Marshaler, emitting keys in order.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ind := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(ind.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatBool(ind.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalText encodes s without HTML escaping so rationale text keeps
// its literal ampersands and angle brackets.
func marshalText(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
