// Package export selects, orders and writes the events table.
package export

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/model"
)

// All disables a filter.
const All = "all"

// Historical periods, keyed on period.start.
const (
	PeriodAncient  = "ancient"
	PeriodMedieval = "medieval"
	PeriodColonial = "colonial"
	PeriodModern   = "modern"
)

// Periods lists the recognized period filters.
var Periods = []string{PeriodAncient, PeriodMedieval, PeriodColonial, PeriodModern}

// Filter selects events. Empty fields and All match everything.
type Filter struct {
	Period string `json:"period,omitempty"`
	Tier   string `json:"tier,omitempty"`
	Denial string `json:"denial,omitempty"`
	Search string `json:"search,omitempty"`
}

// Validate rejects unknown periods and denial statuses.
func (f Filter) Validate() error {
	switch f.Period {
	case "", All, PeriodAncient, PeriodMedieval, PeriodColonial, PeriodModern:
	default:
		return eris.Errorf("export: unknown period %q", f.Period)
	}
	if f.Denial != "" && f.Denial != All && !model.DenialStatus(f.Denial).Valid() {
		return eris.Errorf("export: unknown denial status %q", f.Denial)
	}
	return nil
}

// Match reports whether e passes every active filter.
func (f Filter) Match(e *model.Event) bool {
	return matchPeriod(e, f.Period) &&
		(active(f.Tier) == "" || string(e.Analysis.Tier) == f.Tier) &&
		(active(f.Denial) == "" || string(e.DenialStatus) == f.Denial) &&
		matchSearch(e, f.Search)
}

// Apply returns the events that match f, in input order.
func (f Filter) Apply(events []*model.Event) []*model.Event {
	out := make([]*model.Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func active(v string) string {
	if v == All {
		return ""
	}
	return v
}

func matchPeriod(e *model.Event, period string) bool {
	start := e.Period.Start
	switch period {
	case PeriodAncient:
		return start < 500
	case PeriodMedieval:
		return start >= 500 && start < 1500
	case PeriodColonial:
		return start >= 1500 && start < 1900
	case PeriodModern:
		return start >= 1900
	}
	return true
}

// matchSearch is a case-insensitive substring test over the
// descriptive fields.
func matchSearch(e *model.Event, query string) bool {
	if query == "" {
		return true
	}
	fields := []string{
		e.Name,
		e.Geography.Region,
		e.Geography.Country,
		string(e.Analysis.Tier),
		e.Analysis.PatternNote,
		e.Description,
	}
	fields = append(fields, e.Participants.Perpetrators...)
	fields = append(fields, e.Participants.Victims...)

	var parts []string
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), strings.ToLower(query))
}
