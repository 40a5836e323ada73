// Package server implements the HTTP server and routing logic.
package server

import (
	"context"
	"net/http"

	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/handlers"
	"github.com/stagehand/stagehand/internal/server/ratelimit"
	"github.com/stagehand/stagehand/internal/server/reqctx"
)

// Config holds the server configuration.
type Config struct {
	Handlers handlers.Config
	// Limits may be nil to disable rate limiting.
	Limits *ratelimit.Config
}

// loginHint answers the redirect target of the session middleware.
type loginHint struct {
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
}

type loginPageRequest struct {
	From string `query:"from"`
}

func (r *loginPageRequest) Validate() error {
	return nil
}

func loginPage(_ context.Context, req *loginPageRequest) (*dto.DataResponse[loginHint], error) {
	return dto.Data(loginHint{Message: "Log in with POST /api/auth/login.", From: req.From}), nil
}

// NewRouter creates and configures the HTTP router.
// Serves the public API at /api/* and the performer's API at /api/dashboard/*.
func NewRouter(svc *handlers.Services, cfg *Config) http.Handler {
	mux := http.NewServeMux()
	hh := handlers.NewHealthHandler(cfg.Handlers.Version, cfg.Handlers.Store, svc.Assistant != nil)
	authh := handlers.NewAuthHandler(svc, &cfg.Handlers)
	songh := handlers.NewSongHandler(svc.Catalog)
	showh := handlers.NewShowHandler(svc.Catalog)
	ah := handlers.NewAssistantHandler(svc.Assistant)
	histh := handlers.NewHistoryHandler(svc.History)

	// Health check
	mux.Handle("GET /api/health", Wrap(hh.Health, cfg))

	// Auth endpoints
	mux.Handle("POST /api/auth/login", Wrap(authh.Login, cfg))
	mux.Handle("POST /api/auth/logout", Wrap(authh.Logout, cfg))
	mux.Handle("GET /api/auth/session", Wrap(authh.Session, cfg))
	mux.Handle("GET /login", Wrap(loginPage, cfg))

	// Public catalog
	mux.Handle("GET /api/songs", Wrap(songh.ListSongs, cfg))
	mux.Handle("GET /api/songs/{id}", Wrap(songh.GetSong, cfg))
	mux.Handle("GET /api/shows", Wrap(showh.ListShows, cfg))
	mux.Handle("GET /api/shows/{id}", Wrap(showh.GetShow, cfg))
	mux.Handle("GET /api/shows/{id}/setlist", Wrap(showh.ListSetlist, cfg))

	// Assistant
	mux.Handle("POST /api/assistant", Wrap(ah.Ask, cfg))

	// Dashboard: songs
	mux.Handle("POST /api/dashboard/songs", WrapAuth(songh.CreateSong, svc, cfg))
	mux.Handle("PUT /api/dashboard/songs/{id}", WrapAuth(songh.UpdateSong, svc, cfg))
	mux.Handle("DELETE /api/dashboard/songs/{id}", WrapAuth(songh.DeleteSong, svc, cfg))

	// Dashboard: shows
	mux.Handle("POST /api/dashboard/shows", WrapAuth(showh.CreateShow, svc, cfg))
	mux.Handle("PUT /api/dashboard/shows/{id}", WrapAuth(showh.UpdateShow, svc, cfg))
	mux.Handle("DELETE /api/dashboard/shows/{id}", WrapAuth(showh.DeleteShow, svc, cfg))

	// Dashboard: setlists
	mux.Handle("POST /api/dashboard/shows/{id}/songs", WrapAuth(showh.AddSong, svc, cfg))
	mux.Handle("PUT /api/dashboard/shows/{id}/songs/{showSongID}", WrapAuth(showh.EditSong, svc, cfg))
	mux.Handle("DELETE /api/dashboard/shows/{id}/songs/{showSongID}", WrapAuth(showh.RemoveSong, svc, cfg))

	// Dashboard: history
	mux.Handle("GET /api/dashboard/history", WrapAuth(histh.ListHistory, svc, cfg))

	// Dashboard pages only confirm the session; the UI is served elsewhere.
	mux.Handle("GET /dashboard/", WrapAuth(func(ctx context.Context, _ *reqctx.Session, req *dto.EmptyRequest) (*dto.DataResponse[*dto.SessionResponse], error) {
		return authh.Session(ctx, req)
	}, svc, cfg))

	return RequestContext(cfg.Handlers.JWTSecret, svc.IPGeo, RequireSession(mux))
}
