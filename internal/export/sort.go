package export

import (
	"cmp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/model"
)

// Sort fields.
const (
	SortName   = "name"
	SortPeriod = "period"
	SortDeaths = "deaths"
	SortIndex  = "index"
	SortRegion = "region"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Order describes how the table is sorted. The zero value sorts by
// period, ascending.
type Order struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

func (o Order) normalized() Order {
	if o.Field == "" {
		o.Field = SortPeriod
	}
	if o.Direction == "" {
		o.Direction = Asc
	}
	return o
}

// Validate rejects unknown fields and directions.
func (o Order) Validate() error {
	o = o.normalized()
	switch o.Field {
	case SortName, SortPeriod, SortDeaths, SortIndex, SortRegion:
	default:
		return eris.Errorf("export: unknown sort field %q", o.Field)
	}
	if o.Direction != Asc && o.Direction != Desc {
		return eris.Errorf("export: unknown sort direction %q", o.Direction)
	}
	return nil
}

// Sort returns a sorted copy of events. Ties keep input order.
func (o Order) Sort(events []*model.Event) []*model.Event {
	o = o.normalized()
	out := make([]*model.Event, len(events))
	copy(out, events)

	compare := compareFunc(o.Field)
	if compare == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if o.Direction == Desc {
			return compare(out[j], out[i]) < 0
		}
		return compare(out[i], out[j]) < 0
	})
	return out
}

func compareFunc(field string) func(a, b *model.Event) int {
	switch field {
	case SortName:
		return func(a, b *model.Event) int { return strings.Compare(a.Name, b.Name) }
	case SortPeriod:
		return func(a, b *model.Event) int { return cmp.Compare(a.Period.Start, b.Period.Start) }
	case SortDeaths:
		return func(a, b *model.Event) int { return cmp.Compare(a.Metrics.Mortality.Max, b.Metrics.Mortality.Max) }
	case SortIndex:
		return func(a, b *model.Event) int { return cmp.Compare(a.IndexScore(), b.IndexScore()) }
	case SortRegion:
		return func(a, b *model.Event) int { return strings.Compare(a.Geography.Region, b.Geography.Region) }
	}
	return nil
}
