package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stagehand/stagehand/internal/config"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/reqctx"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!!")

func TestSessionToken(t *testing.T) {
	now := time.Now()
	s := &reqctx.Session{Username: "asha", Name: "Asha"}

	t.Run("round trip", func(t *testing.T) {
		tok, exp, err := NewSessionToken(testSecret, s, now, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseSessionToken(testSecret, tok)
		if err != nil {
			t.Fatal(err)
		}
		if got.Username != "asha" || got.Name != "Asha" {
			t.Errorf("session = %+v", got)
		}
		if got.ExpiresAt.Unix() != exp.Unix() {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, exp)
		}
	})
	t.Run("expired", func(t *testing.T) {
		tok, _, err := NewSessionToken(testSecret, s, now.Add(-2*time.Hour), time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseSessionToken(testSecret, tok); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("wrong secret", func(t *testing.T) {
		tok, _, err := NewSessionToken([]byte("another-secret-key-32-bytes-long"), s, now, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseSessionToken(testSecret, tok); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("unsigned", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "asha",
			"exp": now.Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseSessionToken(testSecret, tok); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("no expiry", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "asha"}).SignedString(testSecret)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseSessionToken(testSecret, tok); err == nil {
			t.Error("expected error")
		}
	})
}

func TestSessionFromRequest(t *testing.T) {
	tok, _, err := NewSessionToken(testSecret, &reqctx.Session{Username: "asha"}, time.Now(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest("GET", "/", nil)
	if SessionFromRequest(r, testSecret) != nil {
		t.Error("expected nil without cookie")
	}
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
	if s := SessionFromRequest(r, testSecret); s == nil || s.Username != "asha" {
		t.Errorf("session = %+v", s)
	}
}

func newAuthHandler(t *testing.T, acct config.Auth) *AuthHandler {
	t.Helper()
	return NewAuthHandler(&Services{}, &Config{JWTSecret: testSecret, Auth: acct, SecureCookies: true})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := newAuthHandler(t, config.Auth{Username: "asha", PasswordHash: string(hash)})
	now := time.Date(2025, 10, 20, 18, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	tests := []struct {
		name     string
		username string
		password string
		ok       bool
	}{
		{"valid", "asha", "hunter22", true},
		{"wrong password", "asha", "hunter2", false},
		{"wrong user", "lata", "hunter22", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Login(t.Context(), &dto.LoginRequest{Username: tt.username, Password: tt.password})
			if !tt.ok {
				if code := statusOf(err); code != http.StatusUnauthorized {
					t.Errorf("status = %d, want 401", code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.Data.Name != "asha" {
				t.Errorf("name = %q, want the username as fallback", resp.Data.Name)
			}
			if want := now.Add(DefaultSessionTTL); !resp.Data.ExpiresAt.Equal(want) {
				t.Errorf("ExpiresAt = %v, want %v", resp.Data.ExpiresAt, want)
			}
			cookies := resp.ResponseCookies()
			if len(cookies) != 1 {
				t.Fatalf("got %d cookies", len(cookies))
			}
			c := cookies[0]
			if c.Name != SessionCookie || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
				t.Errorf("cookie = %+v", c)
			}
		})
	}
}

func TestLoginDisabled(t *testing.T) {
	h := newAuthHandler(t, config.Auth{})
	_, err := h.Login(t.Context(), &dto.LoginRequest{Username: "asha", Password: "x"})
	if code := statusOf(err); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestLogout(t *testing.T) {
	h := newAuthHandler(t, config.Auth{})
	resp, err := h.Logout(t.Context(), &dto.EmptyRequest{})
	if err != nil {
		t.Fatal(err)
	}
	cookies := resp.ResponseCookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Errorf("cookies = %+v", cookies)
	}
}
