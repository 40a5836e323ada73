// Writes rate limit headers.

package ratelimit

import (
	"net/http"
	"strconv"
)

// WriteHeaders sets the X-RateLimit-* headers, plus Retry-After when the
// request was rejected.
func WriteHeaders(w http.ResponseWriter, r Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(r.ResetAt.Unix(), 10))
	if !r.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(r.RetryAfter.Seconds())))
	}
}

// Key builds the bucket key of a client for a tier.
func Key(tier, clientIP string) string {
	return "ip:" + clientIP + ":" + tier
}

// Check consumes a token of tier for clientIP and writes the headers. A nil
// tier always allows.
func Check(w http.ResponseWriter, tier *Tier, clientIP string) Result {
	if tier == nil {
		return Result{Allowed: true}
	}
	res := tier.Limiter.Allow(Key(tier.Name, clientIP))
	WriteHeaders(w, res)
	return res
}
