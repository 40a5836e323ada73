// Package catalog implements the song library, the shows and the setlist
// membership rules on top of a storage.Store.
//
// Every operation returns either an Outcome carrying the user facing message
// or an *Error classifying the failure. Store errors are logged here and
// never leak their text to the caller.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
)

// maxSetlistAttempts bounds the compare-and-swap retries on a setlist write.
const maxSetlistAttempts = 5

// Outcome is the result of a successful mutation.
type Outcome struct {
	Message string
	ID      ksid.ID
}

// Service exposes the catalog operations.
type Service struct {
	store storage.Store
	now   func() time.Time
}

// New returns a Service backed by store.
func New(store storage.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// parseID parses a caller supplied identifier. The zero ID is never valid.
func parseID(s string) (ksid.ID, error) {
	id, err := ksid.Parse(strings.TrimSpace(s))
	if err != nil || id.IsZero() {
		return 0, invalid(msgInvalidID)
	}
	return id, nil
}

// fail passes catalog errors through and turns anything else into a
// KindStore error carrying msg.
func fail(ctx context.Context, msg string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	slog.ErrorContext(ctx, "Store operation failed", "op", msg, "err", err)
	return storeFailure(msg, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
