// Handles login, logout and session cookies.

package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/reqctx"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// DefaultSessionTTL is used when Config.SessionTTL is zero.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid claims")
)

// NewSessionToken signs an HS256 token for s valid for ttl from now.
func NewSessionToken(secret []byte, s *reqctx.Session, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  s.Username,
		"name": s.Name,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, exp, nil
}

// ParseSessionToken validates the token signature and expiry and returns the
// session it carries.
func ParseSessionToken(secret []byte, tokenString string) (*reqctx.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errInvalidClaims
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errInvalidClaims
	}
	name, _ := claims["name"].(string)
	return &reqctx.Session{Username: sub, Name: name, ExpiresAt: exp.Time}, nil
}

// SessionFromRequest returns the session of the request's cookie, or nil.
func SessionFromRequest(r *http.Request, secret []byte) *reqctx.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	s, err := ParseSessionToken(secret, c.Value)
	if err != nil {
		return nil
	}
	return s
}

// AuthHandler handles the performer's session.
type AuthHandler struct {
	cfg *Config
	svc *Services
	now func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *Services, cfg *Config) *AuthHandler {
	return &AuthHandler{cfg: cfg, svc: svc, now: time.Now}
}

func (h *AuthHandler) ttl() time.Duration {
	if h.cfg.SessionTTL > 0 {
		return h.cfg.SessionTTL
	}
	return DefaultSessionTTL
}

func (h *AuthHandler) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// Login verifies the credentials and sets the session cookie.
func (h *AuthHandler) Login(ctx context.Context, req *dto.LoginRequest) (*dto.DataResponse[dto.SessionResponse], error) {
	acct := h.cfg.Auth
	if !acct.Enabled() {
		return nil, dto.Unavailable("Login is not configured.")
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(acct.Username)) == 1
	// bcrypt runs even when the username is wrong.
	pwErr := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password))
	if !userOK || pwErr != nil {
		slog.WarnContext(ctx, "Login failed", "user", req.Username, "ip", reqctx.ClientIP(ctx))
		return nil, dto.Unauthorized("Invalid username or password.")
	}
	name := acct.DisplayName
	if name == "" {
		name = acct.Username
	}
	s := &reqctx.Session{Username: acct.Username, Name: name}
	token, exp, err := NewSessionToken(h.cfg.JWTSecret, s, h.now(), h.ttl())
	if err != nil {
		return nil, dto.Internal("Failed to create the session.").Wrap(err)
	}
	country := h.svc.IPGeo.CountryCode(reqctx.ClientIP(ctx))
	slog.InfoContext(ctx, "Login", "user", s.Username, "ip", reqctx.ClientIP(ctx), "country", country)
	resp := dto.Data(dto.SessionResponse{Username: s.Username, Name: s.Name, ExpiresAt: exp.UTC(), Country: country})
	return resp.WithCookie(h.cookie(token, exp, int(h.ttl().Seconds()))), nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, _ *dto.EmptyRequest) (*dto.DataResponse[string], error) {
	if s := reqctx.SessionFrom(ctx); s != nil {
		slog.InfoContext(ctx, "Logout", "user", s.Username)
	}
	return dto.Message("Logged out successfully.", "").WithCookie(h.cookie("", time.Unix(0, 0), -1)), nil
}

// Session returns the current session, or null when logged out.
func (h *AuthHandler) Session(ctx context.Context, _ *dto.EmptyRequest) (*dto.DataResponse[*dto.SessionResponse], error) {
	s := reqctx.SessionFrom(ctx)
	if s == nil {
		return dto.Data[*dto.SessionResponse](nil), nil
	}
	return dto.Data(&dto.SessionResponse{Username: s.Username, Name: s.Name, ExpiresAt: s.ExpiresAt.UTC()}), nil
}
