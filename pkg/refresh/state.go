// Package refresh decides when an enrichment pass is due.
//
// The decision reads a small JSON document that records, per cache class,
// how often the class should be refreshed and when it last was:
//
//	{
//	  "enabled": true,
//	  "intervalDays": 7,
//	  "lastRefresh": "2025-01-01T00:00:00Z",
//	  "cache": {
//	    "metadata":    {"enabled": true, "ttl": 7, "lastRefresh": "2025-01-01T00:00:00Z"},
//	    "screenshots": {"ttl": 30, "regenerate": false},
//	    "ai":          {"ttl": 30}
//	  },
//	  "targets": {"papers": "2025-01-03T00:00:00Z"}
//	}
//
// The top-level intervalDays and lastRefresh predate per-class TTLs and are
// used for any class without its own entry. Targets records metadata
// refreshes of runs limited to a subset of record kinds, so that one
// partial run does not make another look up to date.
package refresh

import (
	"time"
)

// Class is a refresh cadence bucket.
type Class string

const (
	ClassMetadata    Class = "metadata"
	ClassScreenshots Class = "screenshots"
	ClassAI          Class = "ai"
)

// ClassConfig is the refresh configuration of one class.
type ClassConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
	// TTLDays is the minimum age of LastRefresh before the class is due.
	// Zero falls back to the top-level IntervalDays.
	TTLDays float64 `json:"ttl,omitempty"`
	// Regenerate false keeps existing output forever once the class has
	// been refreshed.
	Regenerate  *bool      `json:"regenerate,omitempty"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
}

// State is the persisted refresh document.
type State struct {
	Enabled      *bool                  `json:"enabled,omitempty"`
	IntervalDays float64                `json:"intervalDays,omitempty"`
	LastRefresh  *time.Time             `json:"lastRefresh,omitempty"`
	Cache        map[Class]*ClassConfig `json:"cache,omitempty"`
	Targets      map[string]time.Time   `json:"targets,omitempty"`
}

// DefaultIntervalDays is the interval written into a state document
// created by the first run.
const DefaultIntervalDays = 7

// NewState returns the document written when none exists yet.
func NewState() *State {
	return &State{Enabled: Bool(true), IntervalDays: DefaultIntervalDays}
}

// Touch records a successful refresh of class at now. A class with its
// own entry is updated there; any other class advances the top-level
// timestamp that its decision reads.
func (s *State) Touch(class Class, now time.Time) {
	t := now.UTC()
	if cfg, ok := s.Cache[class]; ok && cfg != nil {
		cfg.LastRefresh = &t
		return
	}
	s.LastRefresh = &t
}

// TouchTarget records a metadata refresh of a run limited to target. An
// empty target is a full run: it advances the metadata class clock and
// clears every target clock.
func (s *State) TouchTarget(target string, now time.Time) {
	if target == "" {
		s.Touch(ClassMetadata, now)
		s.Targets = nil
		return
	}
	if s.Targets == nil {
		s.Targets = make(map[string]time.Time)
	}
	s.Targets[target] = now.UTC()
}

// Bool returns a pointer to v, for building states in code.
func Bool(v bool) *bool { return &v }
