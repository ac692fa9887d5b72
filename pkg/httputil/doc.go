// Package httputil provides the retry policy shared by all source clients.
//
// # Retry
//
// [Retry] wraps an upstream call and decides what is worth retrying:
//
//   - Rate-limit refusals (local ceilings or HTTP 429) always retry,
//     sleeping the retry-after hint when one is known
//   - Client errors (4xx other than 408 and 429) fail immediately
//   - Malformed payloads fail immediately
//   - Network errors, timeouts and 5xx responses back off exponentially
//
// Callers never inspect error kinds themselves:
//
//	err := httputil.Retry(ctx, httputil.Policy{MaxRetries: 3, BaseDelay: time.Second}, func() error {
//	    return client.Get(ctx, url, &payload)
//	})
//
// # Configuration
//
// [DefaultPolicy] is 3 retries with a 1 second base delay, capped at one
// minute per sleep. Tests inject [Policy.Sleep] to observe delays without
// waiting.
package httputil
