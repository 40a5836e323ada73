package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/storage/jsonlstore"
)

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := jsonlstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(st)
}

func validSong(name string) SongInput {
	return SongInput{
		Name:          name,
		Singer:        "Lata",
		Lyricist:      "Gulzar",
		Movie:         "Aandhi",
		Category:      "Solo",
		OriginalScale: "C",
		MyScale:       "D",
	}
}

func mustAddSong(t *testing.T, s *Service, in SongInput) ksid.ID {
	t.Helper()
	out, err := s.AddSong(t.Context(), in)
	if err != nil {
		t.Fatalf("AddSong(%s): %v", in.Name, err)
	}
	return out.ID
}

func mustAddShow(t *testing.T, s *Service, name, date string) ksid.ID {
	t.Helper()
	out, err := s.AddShow(t.Context(), ShowInput{Name: name, Date: date})
	if err != nil {
		t.Fatalf("AddShow(%s): %v", name, err)
	}
	return out.ID
}

func wantKind(t *testing.T, err error, want Kind, msg string) {
	t.Helper()
	if got := KindOf(err); got != want {
		t.Fatalf("kind = %v (%v), want %v", got, err, want)
	}
	var ce *Error
	errors.As(err, &ce)
	if msg != "" && ce.Message != msg {
		t.Errorf("message = %q, want %q", ce.Message, msg)
	}
}

func TestSongValidation(t *testing.T) {
	s := newService(t)
	_, err := s.AddSong(t.Context(), SongInput{Category: "Opera", YoutubeLink: "not a url"})
	wantKind(t, err, KindValidation, "")
	var ce *Error
	errors.As(err, &ce)
	want := map[string][]string{
		"name":          {msgSongNameRequired},
		"singer":        {msgSingerRequired},
		"lyricist":      {msgLyricistRequired},
		"category":      {msgCategoryInvalid},
		"originalScale": {msgOrigScaleRequired},
		"myScale":       {msgMyScaleRequired},
		"youtubeLink":   {msgYoutubeLinkInvalid},
	}
	if diff := cmp.Diff(want, ce.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}

	in := validSong("  Tere Bina  ")
	in.YoutubeLink = "https://www.youtube.com/watch?v=x"
	out, err := s.AddSong(t.Context(), in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != msgSongAdded {
		t.Errorf("message = %q", out.Message)
	}
	got, err := s.GetSong(t.Context(), out.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Tere Bina" {
		t.Errorf("name not trimmed: %q", got.Name)
	}
}

func TestSongLifecycle(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	b := mustAddSong(t, s, validSong("Bbb"))
	a := mustAddSong(t, s, validSong("Aaa"))

	songs, err := s.ListSongs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 || songs[0].ID != a || songs[1].ID != b {
		t.Fatalf("ListSongs not sorted by name: %+v", songs)
	}

	in := validSong("Bbb")
	in.MyScale = "F#"
	out, err := s.EditSong(ctx, b.String(), in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != msgSongUpdated {
		t.Errorf("message = %q", out.Message)
	}
	got, _ := s.GetSong(ctx, b.String())
	if got.MyScale != "F#" {
		t.Errorf("MyScale = %q", got.MyScale)
	}

	if _, err := s.EditSong(ctx, ksid.NewID().String(), in); err == nil {
		t.Fatal("expected error")
	} else {
		wantKind(t, err, KindNotFound, msgSongNotFound)
	}
	_, err = s.EditSong(ctx, "not-an-id!", in)
	wantKind(t, err, KindInvalid, msgInvalidID)

	out, err = s.DeleteSong(ctx, b.String())
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != msgSongDeleted {
		t.Errorf("message = %q", out.Message)
	}
	_, err = s.DeleteSong(ctx, b.String())
	wantKind(t, err, KindNotFound, msgSongNotFound)
}

func TestShowLifecycle(t *testing.T) {
	s := newService(t)
	ctx := t.Context()

	_, err := s.AddShow(ctx, ShowInput{Date: "yesterday"})
	wantKind(t, err, KindValidation, "")
	var ce *Error
	errors.As(err, &ce)
	want := map[string][]string{"name": {msgShowNameRequired}, "date": {msgShowDateInvalid}}
	if diff := cmp.Diff(want, ce.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}

	old := mustAddShow(t, s, "Old", "2024-01-01")
	recent := mustAddShow(t, s, "Recent", "2025-06-01T19:30:00+02:00")
	shows, err := s.ListShows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 2 || shows[0].ID != recent || shows[1].ID != old {
		t.Fatalf("ListShows not sorted by date desc: %+v", shows)
	}
	if got := shows[0].Date; !got.Equal(time.Date(2025, 6, 1, 17, 30, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got)
	}

	out, err := s.EditShow(ctx, old.String(), ShowInput{Name: "Older", Date: "2023-12-31", Venue: "Hall"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != msgShowUpdated {
		t.Errorf("message = %q", out.Message)
	}
	show, err := s.GetShow(ctx, old.String())
	if err != nil {
		t.Fatal(err)
	}
	if show.Name != "Older" || show.Venue != "Hall" {
		t.Errorf("show = %+v", show)
	}

	if _, err := s.DeleteShow(ctx, old.String()); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetShow(ctx, old.String())
	wantKind(t, err, KindNotFound, msgShowNotFound)
	_, err = s.DeleteShow(ctx, old.String())
	wantKind(t, err, KindNotFound, msgShowNotFound)
}

// failingStore fails every song read.
type failingStore struct {
	storage.Store
}

func (failingStore) GetSong(context.Context, ksid.ID) (*entity.Song, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) ListSongs(context.Context) ([]*entity.Song, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailure(t *testing.T) {
	st, err := jsonlstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(failingStore{st})
	_, err = s.ListSongs(t.Context())
	wantKind(t, err, KindStore, msgSongsLoadFailed)
	if err.Error() != msgSongsLoadFailed {
		t.Errorf("store error leaked: %q", err.Error())
	}
	_, err = s.EditSong(t.Context(), ksid.NewID().String(), validSong("x"))
	wantKind(t, err, KindStore, msgSongUpdateFailed)
}
