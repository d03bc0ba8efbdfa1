package report

import "github.com/sells-group/hpi-cli/internal/model"

// Marker keys rendered by Generator.
const (
	KeySummary             = "SUMMARY"
	KeyEventsTable         = "EVENTS_TABLE"
	KeyDeniedTable         = "DENIED_TABLE"
	KeyDeniedCount         = "DENIED_COUNT"
	KeyEventCount          = "EVENT_COUNT"
	KeyTierBreakdown       = "TIER_BREAKDOWN"
	KeyPatternsTable       = "PATTERNS_TABLE"
	KeyKnowledgeLostCount  = "KNOWLEDGE_LOST_COUNT"
	KeyKnowledgeSavedCount = "KNOWLEDGE_SAVED_COUNT"
	KeyKnowledgeTable      = "KNOWLEDGE_TABLE"
	KeyKnowledgeSavedTable = "KNOWLEDGE_SAVED_TABLE"
)

// Generator renders every marker section from one corpus snapshot.
type Generator struct {
	events []*model.Event
	stats  *Stats
	lost   []model.KnowledgeEntry
	saved  []model.KnowledgeEntry
}

// NewGenerator computes the aggregates for events. The knowledge lists
// may be nil.
func NewGenerator(events []*model.Event, lost, saved []model.KnowledgeEntry) *Generator {
	return &Generator{
		events: events,
		stats:  Calc(events),
		lost:   lost,
		saved:  saved,
	}
}

// Stats returns the aggregates the generator renders from.
func (g *Generator) Stats() *Stats { return g.stats }

// Sections returns the renderers for every known marker key.
func (g *Generator) Sections() []Section {
	return []Section{
		{KeySummary, func() string { return Summary(g.stats) }},
		{KeyEventsTable, func() string { return EventsTable(g.events) }},
		{KeyDeniedTable, func() string { return DeniedTable(g.stats) }},
		{KeyDeniedCount, func() string { return itoa(g.stats.DeniedCount()) }},
		{KeyEventCount, func() string { return itoa(g.stats.Count) }},
		{KeyTierBreakdown, func() string { return TierBreakdown(g.stats) }},
		{KeyPatternsTable, func() string { return PatternsTable(g.stats) }},
		{KeyKnowledgeLostCount, func() string { return itoa(len(g.lost)) }},
		{KeyKnowledgeSavedCount, func() string { return itoa(len(g.saved)) }},
		{KeyKnowledgeTable, func() string { return KnowledgeTable(g.lost, g.events) }},
		{KeyKnowledgeSavedTable, func() string { return KnowledgeTable(g.saved, g.events) }},
	}
}
