// Package storagetest holds a conformance suite run against every
// storage.Store implementation.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// Run exercises the Store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Songs", func(t *testing.T) { testSongs(t, newStore(t)) })
	t.Run("Shows", func(t *testing.T) { testShows(t, newStore(t)) })
	t.Run("ReplaceSetlist", func(t *testing.T) { testReplaceSetlist(t, newStore(t)) })
}

// Song returns a valid song with the given name.
func Song(name string) *entity.Song {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &entity.Song{
		ID:            ksid.NewID(),
		Name:          name,
		Singer:        "Singer " + name,
		Lyricist:      "Lyricist " + name,
		Category:      entity.CategorySolo,
		OriginalScale: "C",
		MyScale:       "D",
		Created:       now,
		Modified:      now,
	}
}

// Show returns a valid show with an empty setlist.
func Show(name string, date time.Time) *entity.Show {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &entity.Show{
		ID:       ksid.NewID(),
		Name:     name,
		Date:     date.UTC(),
		Songs:    []entity.ShowSong{},
		Created:  now,
		Modified: now,
	}
}

func testSongs(t *testing.T, s storage.Store) {
	ctx := t.Context()
	for _, name := range []string{"Yesterday", "Bohemian", "Lemon"} {
		if err := s.InsertSong(ctx, Song(name)); err != nil {
			t.Fatalf("InsertSong(%s): %v", name, err)
		}
	}
	songs, err := s.ListSongs(ctx)
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	var names []string
	for _, song := range songs {
		names = append(names, song.Name)
	}
	if want := []string{"Bohemian", "Lemon", "Yesterday"}; !slices.Equal(names, want) {
		t.Errorf("ListSongs() names = %v, want %v", names, want)
	}

	target := songs[1]
	target.MyScale = "F#"
	if err := s.UpdateSong(ctx, target); err != nil {
		t.Fatalf("UpdateSong: %v", err)
	}
	got, err := s.GetSong(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	if got.MyScale != "F#" || got.Name != "Lemon" {
		t.Errorf("GetSong() = %+v", got)
	}

	if err := s.DeleteSong(ctx, target.ID); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	missing := []struct {
		name string
		err  error
	}{
		{"get deleted", func() error { _, err := s.GetSong(ctx, target.ID); return err }()},
		{"delete twice", s.DeleteSong(ctx, target.ID)},
		{"update missing", s.UpdateSong(ctx, Song("ghost"))},
	}
	for _, m := range missing {
		if !errors.Is(m.err, storage.ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", m.name, m.err)
		}
	}
}

func testShows(t *testing.T, s storage.Store) {
	ctx := t.Context()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	older := Show("Spring", base)
	newer := Show("Summer", base.AddDate(0, 2, 0))
	for _, show := range []*entity.Show{older, newer} {
		if err := s.InsertShow(ctx, show); err != nil {
			t.Fatalf("InsertShow: %v", err)
		}
	}
	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatalf("ListShows: %v", err)
	}
	if len(shows) != 2 || shows[0].ID != newer.ID || shows[1].ID != older.ID {
		t.Fatalf("ListShows() not sorted by date descending: %+v", shows)
	}

	entries := []entity.ShowSong{{ID: ksid.NewID(), SongID: ksid.NewID(), Performer: "Asha", AdjustedScale: "G", Order: 1}}
	if err := s.ReplaceSetlist(ctx, older.ID, 0, entries); err != nil {
		t.Fatalf("ReplaceSetlist: %v", err)
	}
	info := older.Clone()
	info.Name = "Spring Gala"
	info.Venue = "Town Hall"
	if err := s.UpdateShowInfo(ctx, info); err != nil {
		t.Fatalf("UpdateShowInfo: %v", err)
	}
	got, err := s.GetShow(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetShow: %v", err)
	}
	if got.Name != "Spring Gala" || got.Venue != "Town Hall" || !got.Date.Equal(base) {
		t.Errorf("GetShow() info = %q %q %v", got.Name, got.Venue, got.Date)
	}
	if len(got.Songs) != 1 || got.Songs[0].Performer != "Asha" {
		t.Errorf("UpdateShowInfo touched the setlist: %+v", got.Songs)
	}

	if err := s.DeleteShow(ctx, older.ID); err != nil {
		t.Fatalf("DeleteShow: %v", err)
	}
	if _, err := s.GetShow(ctx, older.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetShow(deleted) = %v, want ErrNotFound", err)
	}
	if err := s.DeleteShow(ctx, older.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteShow(deleted) = %v, want ErrNotFound", err)
	}
	if err := s.UpdateShowInfo(ctx, older); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateShowInfo(deleted) = %v, want ErrNotFound", err)
	}
}

func testReplaceSetlist(t *testing.T, s storage.Store) {
	ctx := t.Context()
	show := Show("Gala", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.InsertShow(ctx, show); err != nil {
		t.Fatal(err)
	}
	first := entity.ShowSong{ID: ksid.NewID(), SongID: ksid.NewID(), Performer: "A", AdjustedScale: "C", Order: 1}
	second := entity.ShowSong{ID: ksid.NewID(), SongID: ksid.NewID(), Performer: "B", AdjustedScale: "D", Order: 2}

	if err := s.ReplaceSetlist(ctx, show.ID, 0, []entity.ShowSong{first}); err != nil {
		t.Fatalf("rev 0: %v", err)
	}
	if err := s.ReplaceSetlist(ctx, show.ID, 0, []entity.ShowSong{first, second}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("stale rev: err = %v, want ErrConflict", err)
	}
	if err := s.ReplaceSetlist(ctx, show.ID, 1, []entity.ShowSong{first, second}); err != nil {
		t.Fatalf("rev 1: %v", err)
	}
	got, err := s.GetShow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rev != 2 || len(got.Songs) != 2 || got.Songs[1].ID != second.ID || got.Songs[1].Order != 2 {
		t.Errorf("GetShow() = rev %d songs %+v", got.Rev, got.Songs)
	}
	if err := s.ReplaceSetlist(ctx, ksid.NewID(), 0, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing show: err = %v, want ErrNotFound", err)
	}
	if err := s.ReplaceSetlist(ctx, show.ID, 2, nil); err != nil {
		t.Fatalf("empty setlist: %v", err)
	}
	got, _ = s.GetShow(ctx, show.ID)
	if len(got.Songs) != 0 {
		t.Errorf("setlist not emptied: %+v", got.Songs)
	}
}

// Ctx returns a context bounded for backend round trips.
func Ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
