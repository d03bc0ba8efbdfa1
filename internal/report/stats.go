// Package report aggregates the corpus into summary statistics and
// splices them into the marker regions of markdown documents.
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/pattern"
)

// Year sentinels used before any record is seen. An empty corpus keeps
// them and yields a negative span.
const (
	yearMinSentinel = 9999
	yearMaxSentinel = 0
)

// Count is one key of a tally.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counts is a tally that keeps keys in first-seen order.
type Counts []Count

func (c *Counts) inc(key string) {
	for i := range *c {
		if (*c)[i].Key == key {
			(*c)[i].Count++
			return
		}
	}
	*c = append(*c, Count{Key: key, Count: 1})
}

// Get returns the count stored for key.
func (c Counts) Get(key string) int {
	for _, x := range c {
		if x.Key == key {
			return x.Count
		}
	}
	return 0
}

// ByFrequency returns a copy sorted by count, highest first. Ties keep
// first-seen order.
func (c Counts) ByFrequency() Counts {
	out := make(Counts, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// PatternFrequency is the share of events carrying one pattern tag.
type PatternFrequency struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Stats holds the corpus-wide aggregates.
type Stats struct {
	Count     int   `json:"count"`
	DeathsMin int64 `json:"deaths_min"`
	DeathsMax int64 `json:"deaths_max"`
	YearMin   int   `json:"year_min"`
	YearMax   int   `json:"year_max"`
	YearSpan  int   `json:"year_span"`

	ByTier   Counts `json:"by_tier"`
	ByRegion Counts `json:"by_region"`

	// ByDenial buckets events into the five known statuses. Events with
	// any other status are counted in Count only.
	ByDenial map[model.DenialStatus][]*model.Event `json:"-"`

	// Patterns follows taxonomy order.
	Patterns []PatternFrequency `json:"patterns"`
}

// DeniedCount returns the number of events with status denied.
func (s *Stats) DeniedCount() int {
	return len(s.ByDenial[model.DenialDenied])
}

// DenialCounts returns the bucket sizes keyed by status.
func (s *Stats) DenialCounts() map[model.DenialStatus]int {
	out := make(map[model.DenialStatus]int, len(s.ByDenial))
	for k, v := range s.ByDenial {
		out[k] = len(v)
	}
	return out
}

// Calc computes the aggregates over events.
func Calc(events []*model.Event) *Stats {
	s := &Stats{
		Count:    len(events),
		YearMin:  yearMinSentinel,
		YearMax:  yearMaxSentinel,
		ByDenial: make(map[model.DenialStatus][]*model.Event, len(model.KnownDenialStatuses)),
	}
	for _, st := range model.KnownDenialStatuses {
		s.ByDenial[st] = []*model.Event{}
	}

	for _, e := range events {
		s.DeathsMin += e.Metrics.Mortality.Min
		s.DeathsMax += e.Metrics.Mortality.Max

		if e.Period.HasStart {
			s.YearMin = min(s.YearMin, e.Period.Start)
		}
		if e.Period.HasEnd {
			s.YearMax = max(s.YearMax, e.Period.End)
		}

		s.ByTier.inc(string(e.Analysis.TierOrUnknown()))
		s.ByRegion.inc(RegionToken(e.Geography.Region))

		if bucket, ok := s.ByDenial[e.DenialOrUnknown()]; ok {
			s.ByDenial[e.DenialOrUnknown()] = append(bucket, e)
		}
	}
	s.YearSpan = s.YearMax - s.YearMin

	freq := pattern.Frequency(events)
	for _, c := range pattern.Taxonomy {
		s.Patterns = append(s.Patterns, PatternFrequency{
			ID:      c.ID,
			Label:   c.Label,
			Count:   freq[c.ID],
			Percent: percent(freq[c.ID], len(events)),
		})
	}
	return s
}

// RegionToken truncates a region at the first "/" and then at the first
// "(", trimming whitespace. An empty region is "Unknown".
func RegionToken(region string) string {
	if region == "" {
		return "Unknown"
	}
	token, _, _ := strings.Cut(region, "/")
	token, _, _ = strings.Cut(token, "(")
	return strings.TrimSpace(token)
}

// percent rounds half to even, matching the published tables.
func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(count) / float64(total) * 100))
}
