package resilience

import (
	"sort"
	"sync"
)

// ReviewEntry is a record the link pass could not resolve automatically.
type ReviewEntry struct {
	Record    string `json:"record"`
	Name      string `json:"name"`
	Query     string `json:"query"`
	Reason    string `json:"reason"`
	ErrorType string `json:"error_type,omitempty"`
}

// ReviewQueue collects unresolved records for manual follow-up. Entries
// are never retried automatically.
type ReviewQueue struct {
	mu      sync.Mutex
	entries []ReviewEntry
}

// NewReviewQueue creates an empty queue.
func NewReviewQueue() *ReviewQueue {
	return &ReviewQueue{}
}

// Add queues a record with no match.
func (q *ReviewQueue) Add(record, name, query, reason string) {
	q.push(ReviewEntry{Record: record, Name: name, Query: query, Reason: reason})
}

// AddError queues a record whose lookup failed, classifying err.
func (q *ReviewQueue) AddError(record, name, query string, err error) {
	q.push(ReviewEntry{
		Record:    record,
		Name:      name,
		Query:     query,
		Reason:    err.Error(),
		ErrorType: Classify(err),
	})
}

func (q *ReviewQueue) push(e ReviewEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

// Len returns the number of queued entries.
func (q *ReviewQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns the queued entries sorted by record.
func (q *ReviewQueue) Entries() []ReviewEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]ReviewEntry, len(q.entries))
	copy(out, q.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Record < out[j].Record })
	return out
}
