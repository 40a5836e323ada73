// Defines shared service dependencies for handlers.

package handlers

import (
	"time"

	"github.com/stagehand/stagehand/internal/assistant"
	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/config"
	"github.com/stagehand/stagehand/internal/server/ipgeo"
	"github.com/stagehand/stagehand/internal/storage/history"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Catalog   *catalog.Service
	History   *history.Repo      // nil unless the jsonl store is used
	DataFiles []string           // files committed to History after a change
	Assistant assistant.Answerer // nil when no API key is configured
	IPGeo     *ipgeo.Checker     // may be nil
}

// Config holds configuration values needed by handlers.
type Config struct {
	JWTSecret           []byte
	Auth                config.Auth
	SessionTTL          time.Duration
	SecureCookies       bool
	MaxRequestBodyBytes int64
	Version             string
	Store               string
}
