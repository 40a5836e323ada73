package jsonlstore

import (
	"testing"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := t.Context()
	song := storagetest.Song("Yesterday")
	show := storagetest.Show("Gala", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := s.InsertSong(ctx, song); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertShow(ctx, show); err != nil {
		t.Fatal(err)
	}
	entry := entity.ShowSong{ID: ksid.NewID(), SongID: song.ID, Performer: "Asha", AdjustedScale: song.MyScale, Order: 1}
	if err := s.ReplaceSetlist(ctx, show.ID, 0, []entity.ShowSong{entry}); err != nil {
		t.Fatal(err)
	}

	s2, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.GetShow(ctx, show.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rev != 1 || len(got.Songs) != 1 || got.Songs[0] != entry {
		t.Errorf("reloaded show = rev %d songs %+v", got.Rev, got.Songs)
	}
	if want := []string{"songs.jsonl", "shows.jsonl"}; len(s2.Files()) != 2 || s2.Files()[0] != want[0] || s2.Files()[1] != want[1] {
		t.Errorf("Files() = %v, want %v", s2.Files(), want)
	}
}
