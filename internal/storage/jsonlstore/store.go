// Package jsonlstore implements storage.Store on top of jsonldb tables.
package jsonlstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/jsonldb"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// Store keeps songs and shows in two JSONL files.
type Store struct {
	dir   string
	songs *jsonldb.Table[*entity.Song]
	shows *jsonldb.Table[*entity.Show]
}

var _ storage.Store = (*Store)(nil)

// New opens or creates the tables under dir.
func New(dir string) (*Store, error) {
	songs, err := jsonldb.NewTable[*entity.Song](filepath.Join(dir, "songs.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open songs table: %w", err)
	}
	shows, err := jsonldb.NewTable[*entity.Show](filepath.Join(dir, "shows.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open shows table: %w", err)
	}
	return &Store{dir: dir, songs: songs, shows: shows}, nil
}

// Dir returns the directory holding the table files.
func (s *Store) Dir() string {
	return s.dir
}

// Files returns the table files relative to Dir.
func (s *Store) Files() []string {
	return []string{filepath.Base(s.songs.Path()), filepath.Base(s.shows.Path())}
}

// Close is a no-op; every write is flushed immediately.
func (s *Store) Close(context.Context) error {
	return nil
}

// GetSong implements storage.SongStore.
func (s *Store) GetSong(_ context.Context, id ksid.ID) (*entity.Song, error) {
	song, ok := s.songs.Get(id)
	if !ok {
		return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	return song, nil
}

// ListSongs implements storage.SongStore.
func (s *Store) ListSongs(_ context.Context) ([]*entity.Song, error) {
	out := make([]*entity.Song, 0, s.songs.Len())
	for song := range s.songs.Iter() {
		out = append(out, song)
	}
	slices.SortStableFunc(out, func(a, b *entity.Song) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// InsertSong implements storage.SongStore.
func (s *Store) InsertSong(_ context.Context, song *entity.Song) error {
	return s.songs.Append(song)
}

// UpdateSong implements storage.SongStore.
func (s *Store) UpdateSong(_ context.Context, song *entity.Song) error {
	_, err := s.songs.Update(song)
	return mapErr(err)
}

// DeleteSong implements storage.SongStore.
func (s *Store) DeleteSong(_ context.Context, id ksid.ID) error {
	_, err := s.songs.Delete(id)
	return mapErr(err)
}

// GetShow implements storage.ShowStore.
func (s *Store) GetShow(_ context.Context, id ksid.ID) (*entity.Show, error) {
	show, ok := s.shows.Get(id)
	if !ok {
		return nil, fmt.Errorf("show %s: %w", id, storage.ErrNotFound)
	}
	return show, nil
}

// ListShows implements storage.ShowStore.
func (s *Store) ListShows(_ context.Context) ([]*entity.Show, error) {
	out := make([]*entity.Show, 0, s.shows.Len())
	for show := range s.shows.Iter() {
		out = append(out, show)
	}
	slices.SortStableFunc(out, func(a, b *entity.Show) int {
		return b.Date.Compare(a.Date)
	})
	return out, nil
}

// InsertShow implements storage.ShowStore.
func (s *Store) InsertShow(_ context.Context, show *entity.Show) error {
	if show.Songs == nil {
		show.Songs = []entity.ShowSong{}
	}
	return s.shows.Append(show)
}

// UpdateShowInfo implements storage.ShowStore.
func (s *Store) UpdateShowInfo(_ context.Context, show *entity.Show) error {
	_, err := s.shows.Modify(show.ID, func(cur *entity.Show) (*entity.Show, error) {
		cur.Name = show.Name
		cur.Date = show.Date
		cur.Venue = show.Venue
		cur.Modified = show.Modified
		return cur, nil
	})
	return mapErr(err)
}

// DeleteShow implements storage.ShowStore.
func (s *Store) DeleteShow(_ context.Context, id ksid.ID) error {
	_, err := s.shows.Delete(id)
	return mapErr(err)
}

// ReplaceSetlist implements storage.ShowStore.
func (s *Store) ReplaceSetlist(_ context.Context, showID ksid.ID, rev int64, songs []entity.ShowSong) error {
	_, err := s.shows.Modify(showID, func(cur *entity.Show) (*entity.Show, error) {
		if cur.Rev != rev {
			return nil, fmt.Errorf("show %s at rev %d, expected %d: %w", showID, cur.Rev, rev, storage.ErrConflict)
		}
		cur.Songs = slices.Clone(songs)
		if cur.Songs == nil {
			cur.Songs = []entity.ShowSong{}
		}
		cur.Rev++
		cur.Modified = time.Now().UTC()
		return cur, nil
	})
	return mapErr(err)
}

func mapErr(err error) error {
	if errors.Is(err, jsonldb.ErrNotFound) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return err
}
