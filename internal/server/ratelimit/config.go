// Maps routes to rate limit tiers.

package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Tier is a named limiter.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Limits are requests per minute. Zero disables a tier.
type Limits struct {
	LoginPerMin     int
	AssistantPerMin int
	ReadPerMin      int
	WritePerMin     int
}

// Config holds the tiers keyed by client IP.
type Config struct {
	Login     *Tier
	Assistant *Tier
	Read      *Tier
	Write     *Tier
}

func newTier(name string, perMin, burst int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(min(burst, perMin), 1))}
}

// New builds the tiers from limits.
func New(l Limits) *Config {
	return &Config{
		Login:     newTier("login", l.LoginPerMin, l.LoginPerMin),
		Assistant: newTier("assistant", l.AssistantPerMin, l.AssistantPerMin),
		Read:      newTier("read", l.ReadPerMin, l.ReadPerMin/6),
		Write:     newTier("write", l.WritePerMin, l.WritePerMin/6),
	}
}

// Match returns the tier for a request, or nil when it isn't limited.
func (c *Config) Match(method, path string) *Tier {
	switch {
	case c == nil, path == "/api/health":
		return nil
	case method == http.MethodPost && path == "/api/auth/login":
		return c.Login
	case method == http.MethodPost && path == "/api/assistant":
		return c.Assistant
	case method == http.MethodGet || method == http.MethodHead:
		return c.Read
	case strings.HasPrefix(path, "/api/dashboard/"):
		return c.Write
	}
	return nil
}

// Close stops every limiter.
func (c *Config) Close() {
	if c == nil {
		return
	}
	for _, t := range []*Tier{c.Login, c.Assistant, c.Read, c.Write} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
