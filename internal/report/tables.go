package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/hpi-cli/internal/model"
)

var denialLabels = map[model.DenialStatus]string{
	model.DenialDenied:       "**Denied**",
	model.DenialPartial:      "Partial",
	model.DenialAcknowledged: "No",
	model.DenialDisputed:     "Disputed",
	model.DenialSuppressed:   "Suppressed",
}

// DenialLabel returns the events-table label for s; unrecognized values
// are returned verbatim.
func DenialLabel(s model.DenialStatus) string {
	if l, ok := denialLabels[s]; ok {
		return l
	}
	return string(s)
}

var denierAliases = strings.NewReplacer(
	"Ottoman Empire", "Turkey",
	"Soviet Union", "Russia",
)

// Denier returns the first perpetrator under its present-day name.
func Denier(e *model.Event) string {
	if len(e.Participants.Perpetrators) == 0 {
		return "Unknown"
	}
	return denierAliases.Replace(e.Participants.Perpetrators[0])
}

// Summary renders the one-line corpus summary.
func Summary(s *Stats) string {
	return fmt.Sprintf("%d events. %s years of history (%s–present). %s-%s documented deaths.",
		s.Count,
		FormatThousands(s.YearSpan),
		FormatYear(s.YearMin),
		FormatMagnitude(s.DeathsMin),
		FormatMagnitude(s.DeathsMax),
	)
}

// EventsTable renders every event in chronological order.
func EventsTable(events []*model.Event) string {
	sorted := make([]*model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period.Start < sorted[j].Period.Start })

	var sb strings.Builder
	sb.WriteString("| Event | Period | Deaths | Tier | Denied? |\n")
	sb.WriteString("|-------|--------|--------|------|---------|")
	for _, e := range sorted {
		fmt.Fprintf(&sb, "\n| %s | %s-%s | %s | %s | %s |",
			nameOrUnknown(e),
			bound(e.Period.Start, e.Period.HasStart), bound(e.Period.End, e.Period.HasEnd),
			FormatDeaths(e.Metrics.Mortality.Min, e.Metrics.Mortality.Max),
			e.Analysis.TierOrUnknown().ShortLabel(),
			DenialLabel(e.DenialOrUnknown()),
		)
	}
	return sb.String()
}

// bound renders a period year, or "?" when the record omits it.
func bound(year int, ok bool) string {
	if !ok {
		return "?"
	}
	return strconv.Itoa(year)
}

// DeniedTable renders the denied events, deadliest first.
func DeniedTable(s *Stats) string {
	denied := s.ByDenial[model.DenialDenied]
	if len(denied) == 0 {
		return "No currently denied events."
	}
	sorted := make([]*model.Event, len(denied))
	copy(sorted, denied)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.Mortality.Max > sorted[j].Metrics.Mortality.Max
	})

	var sb strings.Builder
	sb.WriteString("| Event | Denier | Deaths |\n")
	sb.WriteString("|-------|--------|--------|")
	for _, e := range sorted {
		fmt.Fprintf(&sb, "\n| %s | %s | %s |",
			nameOrUnknown(e),
			Denier(e),
			FormatDeaths(e.Metrics.Mortality.Min, e.Metrics.Mortality.Max),
		)
	}
	return sb.String()
}

// TierBreakdown renders one bullet per tier, most common first.
func TierBreakdown(s *Stats) string {
	lines := make([]string, 0, len(s.ByTier))
	for _, c := range s.ByTier.ByFrequency() {
		lines = append(lines, fmt.Sprintf("- **%s**: %d events", c.Key, c.Count))
	}
	return strings.Join(lines, "\n")
}

// PatternsTable renders pattern frequencies, most common first, omitting
// patterns no event carries.
func PatternsTable(s *Stats) string {
	rows := make([]PatternFrequency, len(s.Patterns))
	copy(rows, s.Patterns)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })

	var sb strings.Builder
	sb.WriteString("| Warning Sign Pattern | Frequency |\n")
	sb.WriteString("|---------------------|-----------|")
	for _, p := range rows {
		if p.Count == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n| %s | %d%% (%d/%d) |", p.Label, p.Percent, p.Count, s.Count)
	}
	return sb.String()
}

func nameOrUnknown(e *model.Event) string {
	if e.Name == "" {
		return "Unknown"
	}
	return e.Name
}

func itoa(n int) string { return strconv.Itoa(n) }
