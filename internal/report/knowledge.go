package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/hpi-cli/internal/model"
)

// KnowledgeTable renders knowledge entries oldest first. The Event column
// resolves connected_event against events and falls back to the raw id.
func KnowledgeTable(entries []model.KnowledgeEntry, events []*model.Event) string {
	if len(entries) == 0 {
		return "No entries."
	}
	names := make(map[string]string, len(events))
	for _, e := range events {
		names[e.ID] = e.Name
	}

	sorted := make([]model.KnowledgeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	var sb strings.Builder
	sb.WriteString("| Knowledge | Year | Type | Driver | Event |\n")
	sb.WriteString("|-----------|------|------|--------|-------|")
	for _, k := range sorted {
		year := "Unknown"
		if k.Year != 0 {
			year = FormatYear(k.Year)
		}
		event := "-"
		if k.ConnectedEvent != "" {
			event = k.ConnectedEvent
			if n, ok := names[k.ConnectedEvent]; ok && n != "" {
				event = n
			}
		}
		fmt.Fprintf(&sb, "\n| %s | %s | %s | %s | %s |", k.Name, year, k.Type, k.DriverLabel(), event)
	}
	return sb.String()
}

// DanglingReferences returns the connected_event ids that match no event.
func DanglingReferences(entries []model.KnowledgeEntry, events []*model.Event) []string {
	ids := make(map[string]bool, len(events))
	for _, e := range events {
		ids[e.ID] = true
	}
	var out []string
	for _, k := range entries {
		if k.ConnectedEvent != "" && !ids[k.ConnectedEvent] {
			out = append(out, k.ConnectedEvent)
		}
	}
	return out
}
