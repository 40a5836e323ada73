package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	for i := range 5 {
		res := l.Allow("k")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Limit != 5 {
			t.Errorf("Limit = %d, want 5", res.Limit)
		}
		if res.RetryAfter != 0 {
			t.Errorf("RetryAfter = %v for an allowed request", res.RetryAfter)
		}
	}
	res := l.Allow("k")
	if res.Allowed {
		t.Fatal("6th request should be rate limited")
	}
	if res.Remaining != 0 {
		t.Errorf("Remaining = %d", res.Remaining)
	}
	if res.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want >= 1s", res.RetryAfter)
	}
	if !l.Allow("other").Allowed {
		t.Error("other key must have its own bucket")
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewLimiter(60, time.Minute, 1)
	defer l.Close()
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("Len = %d", l.Len())
	}
	now = now.Add(staleAfter + time.Minute)
	l.sweep()
	if l.Len() != 0 {
		t.Errorf("Len after sweep = %d", l.Len())
	}
}

func TestConfigMatch(t *testing.T) {
	c := New(Limits{LoginPerMin: 5, AssistantPerMin: 10, ReadPerMin: 600, WritePerMin: 60})
	defer c.Close()
	tests := []struct {
		method, path string
		want         *Tier
	}{
		{"GET", "/api/health", nil},
		{"POST", "/api/auth/login", c.Login},
		{"POST", "/api/assistant", c.Assistant},
		{"GET", "/api/songs", c.Read},
		{"POST", "/api/dashboard/songs", c.Write},
		{"DELETE", "/api/dashboard/shows/x", c.Write},
		{"POST", "/api/auth/logout", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := c.Match(tt.method, tt.path); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigDisabled(t *testing.T) {
	c := New(Limits{})
	defer c.Close()
	if c.Match("POST", "/api/auth/login") != nil {
		t.Error("zero limit must disable the tier")
	}
	var nilCfg *Config
	if nilCfg.Match("GET", "/api/songs") != nil {
		t.Error("nil config must not limit")
	}
}

func TestCheck(t *testing.T) {
	c := New(Limits{LoginPerMin: 1})
	defer c.Close()

	w := httptest.NewRecorder()
	if res := Check(w, c.Login, "192.0.2.1"); !res.Allowed {
		t.Fatal("first request should pass")
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %q", got)
	}
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Errorf("Retry-After = %q on allowed request", got)
	}

	w = httptest.NewRecorder()
	if res := Check(w, c.Login, "192.0.2.1"); res.Allowed {
		t.Fatal("second request should be limited")
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	w = httptest.NewRecorder()
	if !Check(w, nil, "192.0.2.1").Allowed {
		t.Error("nil tier must allow")
	}
	if len(w.Header()) != 0 {
		t.Errorf("nil tier wrote headers: %v", w.Header())
	}
}

func TestKey(t *testing.T) {
	if got := Key("login", "10.0.0.1"); got != "ip:10.0.0.1:login" {
		t.Errorf("Key() = %q", got)
	}
}
