package model

// KnowledgeEntry is one item of the knowledge lost/saved lists. Its
// ConnectedEvent refers to an Event.ID; nothing enforces that the event exists.
type KnowledgeEntry struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Year           int    `json:"year,omitempty"`
	Type           string `json:"type,omitempty"`
	Driver         string `json:"driver,omitempty"`
	Description    string `json:"description,omitempty"`
	WhatLost       string `json:"what_lost,omitempty"`
	SavedHow       string `json:"saved_how,omitempty"`
	ConnectedEvent string `json:"connected_event,omitempty"`
}

// DriverLabel returns the display label for the entry's driver.
func (k KnowledgeEntry) DriverLabel() string {
	switch k.Driver {
	case "religious_ideology":
		return "Religious"
	case "conquest":
		return "Conquest"
	case "ethnic_ideology":
		return "Ethnic"
	case "political_ideology":
		return "Political"
	case "economic_exploitation":
		return "Economic"
	}
	return "Unknown"
}
