// Package ratelimit enforces per-client request ceilings for upstream APIs.
//
// A [Limiter] tracks the instants of recent requests in two sliding windows
// (trailing minute and trailing hour). [Limiter.Check] never blocks: when the
// next request would exceed a ceiling it refuses with a
// [errors.RateLimitError] whose RetryAfter is the time until the oldest
// in-window request leaves the window. The retry policy in httputil turns
// that refusal into a sleep.
//
// Limiters are in-memory and per client instance. They do not persist
// across process restarts and do not coordinate between processes.
//
//	l := ratelimit.New(ratelimit.Limits{PerMinute: 10, PerHour: 60})
//	if err := l.Check(); err != nil {
//	    // err is *errors.RateLimitError
//	}
package ratelimit
