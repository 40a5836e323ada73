// Package storage defines the persistence contract shared by the catalog
// backends.
//
// Two implementations exist: jsonlstore keeps documents in JSONL files under
// the data directory, mongostore keeps them in a MongoDB database. Both return
// the sentinel errors below, wrapped, so callers can use errors.Is.
package storage

import (
	"context"
	"errors"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

var (
	// ErrNotFound is returned when the requested document doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write lost a race.
	ErrConflict = errors.New("revision conflict")
)

// SongStore persists catalog songs.
type SongStore interface {
	// GetSong returns the song or ErrNotFound.
	GetSong(ctx context.Context, id ksid.ID) (*entity.Song, error)
	// ListSongs returns every song sorted by name ascending.
	ListSongs(ctx context.Context) ([]*entity.Song, error)
	// InsertSong stores a new song. The ID must already be set.
	InsertSong(ctx context.Context, s *entity.Song) error
	// UpdateSong replaces an existing song. It returns ErrNotFound when absent.
	UpdateSong(ctx context.Context, s *entity.Song) error
	// DeleteSong removes a song. It returns ErrNotFound when absent.
	DeleteSong(ctx context.Context, id ksid.ID) error
}

// ShowStore persists shows and their embedded setlists.
type ShowStore interface {
	// GetShow returns the show or ErrNotFound.
	GetShow(ctx context.Context, id ksid.ID) (*entity.Show, error)
	// ListShows returns every show sorted by date descending.
	ListShows(ctx context.Context) ([]*entity.Show, error)
	// InsertShow stores a new show. The ID must already be set.
	InsertShow(ctx context.Context, s *entity.Show) error
	// UpdateShowInfo replaces name, date and venue, leaving the setlist alone.
	UpdateShowInfo(ctx context.Context, s *entity.Show) error
	// DeleteShow removes a show. It returns ErrNotFound when absent.
	DeleteShow(ctx context.Context, id ksid.ID) error
	// ReplaceSetlist writes the full setlist of a show in one operation, but
	// only if the stored revision still equals rev. On success the stored
	// revision becomes rev+1. It returns ErrNotFound when the show is absent
	// and ErrConflict when the revision moved.
	ReplaceSetlist(ctx context.Context, showID ksid.ID, rev int64, songs []entity.ShowSong) error
}

// Store is the complete persistence contract.
type Store interface {
	SongStore
	ShowStore
	// Close releases the backend resources.
	Close(ctx context.Context) error
}
