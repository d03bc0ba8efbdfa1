package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/export"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/pattern"
	"github.com/sells-group/hpi-cli/internal/report"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string    `json:"status"`
	Events   int       `json:"events"`
	LoadedAt time.Time `json:"loaded_at"`
}

type eventsResponse struct {
	Total  int               `json:"total"`
	Events []json.RawMessage `json:"events"`
}

type statsResponse struct {
	*report.Stats
	Denied   int                        `json:"denied"`
	ByDenial map[model.DenialStatus]int `json:"by_denial"`
}

type patternResponse struct {
	pattern.Category
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	snap := s.current()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Events:   len(snap.records),
		LoadedAt: snap.loadedAt,
	})
}

// listEvents returns the filtered, sorted records verbatim.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := export.Filter{
		Period: q.Get("period"),
		Tier:   q.Get("tier"),
		Denial: q.Get("denial"),
		Search: q.Get("search"),
	}
	order := export.Order{Field: q.Get("sort"), Direction: q.Get("dir")}
	if err := filter.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := order.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap := s.current()
	events := order.Sort(filter.Apply(snap.events))

	resp := eventsResponse{Total: len(events), Events: make([]json.RawMessage, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, snap.byEvent[e].Raw())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.current().byID[id]
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "event not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Raw()) //nolint:errcheck
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	st := s.current().stats
	s.writeJSON(w, http.StatusOK, statsResponse{
		Stats:    st,
		Denied:   st.DeniedCount(),
		ByDenial: st.DenialCounts(),
	})
}

func (s *Server) patterns(w http.ResponseWriter, _ *http.Request) {
	st := s.current().stats
	out := make([]patternResponse, 0, len(pattern.Taxonomy))
	for i, c := range pattern.Taxonomy {
		p := patternResponse{Category: c}
		if i < len(st.Patterns) {
			p.Count = st.Patterns[i].Count
			p.Percent = st.Patterns[i].Percent
		}
		out = append(out, p)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("server: encode response", zap.Error(err))
	}
}
