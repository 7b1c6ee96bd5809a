// Package store provides in-memory storage for delivered command reports.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of reports kept per target.
const DefaultCapacity = 100

// Command names a bot command that produced a report.
type Command string

const (
	CommandCalc Command = "CALC"
	CommandRoll Command = "ROLL"
)

// Report is one line delivered back to a channel or user.
type Report struct {
	ID      string    `json:"id"`
	Target  string    `json:"target"`
	Nick    string    `json:"nick,omitempty"`
	Command Command   `json:"command"`
	Input   string    `json:"input"`
	Text    string    `json:"text"`
	Failed  bool      `json:"failed"`
	Time    time.Time `json:"time"`
}

// TargetSummary describes the reports held for one target.
type TargetSummary struct {
	Target     string    `json:"target"`
	Count      int       `json:"count"`
	LastReport time.Time `json:"lastReport"`
}

// Store is a thread-safe in-memory log of reports, bounded per target.
type Store struct {
	mu       sync.RWMutex
	capacity int
	reports  map[string][]*Report // oldest first
}

// New creates a new empty store. A capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		reports:  make(map[string][]*Report),
	}
}

// Append records a report, assigning its ID and time when unset. The oldest
// report for the target is evicted once capacity is reached.
func (s *Store) Append(r Report) (*Report, error) {
	if r.Target == "" {
		return nil, fmt.Errorf("report target is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.reports[r.Target], &r)
	if over := len(list) - s.capacity; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	s.reports[r.Target] = list
	return &r, nil
}

// List returns up to limit reports for a target, newest first. A limit <= 0
// returns all of them.
func (s *Store) List(target string, limit int) []*Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.reports[target]
	n := len(list)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*Report, 0, n)
	for i := len(list) - 1; i >= 0 && len(result) < n; i-- {
		cp := *list[i]
		result = append(result, &cp)
	}
	return result
}

// Get finds a report by ID.
func (s *Store) Get(id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range s.reports {
		for _, r := range list {
			if r.ID == id {
				cp := *r
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("report '%s' not found", id)
}

// Targets summarizes every target with at least one report, sorted by name.
func (s *Store) Targets() []TargetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TargetSummary, 0, len(s.reports))
	for target, list := range s.reports {
		if len(list) == 0 {
			continue
		}
		result = append(result, TargetSummary{
			Target:     target,
			Count:      len(list),
			LastReport: list[len(list)-1].Time,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Target < result[j].Target
	})
	return result
}

// Clear removes every report for a target.
func (s *Store) Clear(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, target)
}
