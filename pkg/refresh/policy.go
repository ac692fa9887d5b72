package refresh

import (
	"maps"
	"time"
)

// Reason explains a refresh decision.
type Reason string

const (
	ReasonForced         Reason = "forced"
	ReasonNoState        Reason = "no-state"
	ReasonDisabled       Reason = "disabled"
	ReasonClassDisabled  Reason = "class-disabled"
	ReasonNoRegenerate   Reason = "regenerate-disabled"
	ReasonNeverRefreshed Reason = "never-refreshed"
	ReasonNoInterval     Reason = "no-interval"
	ReasonExpired        Reason = "ttl-elapsed"
	ReasonUpToDate       Reason = "up-to-date"
)

// ShouldRefresh reports whether class is due for a refresh at now.
func ShouldRefresh(state *State, class Class, force bool, now time.Time) bool {
	due, _ := Decide(state, class, force, now)
	return due
}

// Decide is [ShouldRefresh] with the reason for the decision.
//
// The rules, in order:
//   - force always refreshes
//   - a missing state refreshes (fail-open)
//   - enabled=false at the top level or on the class never refreshes
//   - regenerate=false on a class that was refreshed before never refreshes
//   - a missing lastRefresh refreshes
//   - otherwise the class refreshes once lastRefresh is ttl days old
//
// A class without its own entry uses the top-level intervalDays and
// lastRefresh.
func Decide(state *State, class Class, force bool, now time.Time) (bool, Reason) {
	if force {
		return true, ReasonForced
	}
	if state == nil {
		return true, ReasonNoState
	}
	if state.Enabled != nil && !*state.Enabled {
		return false, ReasonDisabled
	}

	last, ttl := state.LastRefresh, state.IntervalDays
	if cfg := state.Cache[class]; cfg != nil {
		if cfg.Enabled != nil && !*cfg.Enabled {
			return false, ReasonClassDisabled
		}
		if cfg.Regenerate != nil && !*cfg.Regenerate && cfg.LastRefresh != nil {
			return false, ReasonNoRegenerate
		}
		last = cfg.LastRefresh
		if cfg.TTLDays > 0 {
			ttl = cfg.TTLDays
		}
	}

	if last == nil {
		return true, ReasonNeverRefreshed
	}
	if ttl <= 0 {
		return true, ReasonNoInterval
	}
	if daysSince(*last, now) >= ttl {
		return true, ReasonExpired
	}
	return false, ReasonUpToDate
}

// DecideTarget is [Decide] for the metadata class of a run limited to
// target. The class rules apply unchanged, but the clock is the target's
// own lastRefresh when it has one. A target never refreshed on its own
// falls back to the class clock, which only full runs advance. An empty
// target is [Decide].
func DecideTarget(state *State, target string, force bool, now time.Time) (bool, Reason) {
	if target == "" || state == nil {
		return Decide(state, ClassMetadata, force, now)
	}
	last, ok := state.Targets[target]
	if !ok {
		return Decide(state, ClassMetadata, force, now)
	}

	view := *state
	view.LastRefresh = &last
	if cfg := state.Cache[ClassMetadata]; cfg != nil {
		c := *cfg
		c.LastRefresh = &last
		view.Cache = maps.Clone(state.Cache)
		view.Cache[ClassMetadata] = &c
	}
	return Decide(&view, ClassMetadata, force, now)
}

func daysSince(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24
}
