package reqctx

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"ipv4 with port", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6 with port", "[2001:db8::1]:8080", nil, "2001:db8::1"},
		{"ipv6 bare", "2001:db8::1", nil, "2001:db8::1"},
		{"no port", "192.0.2.1", nil, "192.0.2.1"},
		{"xff single", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5"}, "203.0.113.5"},
		{"xff chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"xff wins", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "203.0.113.9"}, "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || ClientIP(ctx) != "" || SessionFrom(ctx) != nil {
		t.Fatal("empty context must yield zero values")
	}
	id := NewRequestID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("request id %q: %v", id, err)
	}
	ctx = WithRequestID(ctx, id)
	ctx = WithClientIP(ctx, "192.0.2.1")
	ctx = WithUserAgent(ctx, "curl")
	ctx = WithCountryCode(ctx, "IN")
	ctx = WithSession(ctx, &Session{Username: "asha", Name: "Asha"})
	if RequestID(ctx) != id || ClientIP(ctx) != "192.0.2.1" || UserAgent(ctx) != "curl" || CountryCode(ctx) != "IN" {
		t.Error("values not round tripped")
	}
	if s := SessionFrom(ctx); s == nil || s.Username != "asha" {
		t.Errorf("session = %+v", s)
	}
}
