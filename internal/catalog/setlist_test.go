package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/storage/jsonlstore"
)

func ptr(s string) *string { return &s }

func orders(t *testing.T, s *Service, showID ksid.ID) []int {
	t.Helper()
	show, err := s.GetShow(t.Context(), showID.String())
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.CheckDense(show.Songs); err != nil {
		t.Fatalf("setlist not dense: %v", err)
	}
	var out []int
	for _, e := range show.Songs {
		out = append(out, e.Order)
	}
	return out
}

func TestAddToShow(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	song := mustAddSong(t, s, validSong("Yesterday"))

	t.Run("validation", func(t *testing.T) {
		_, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String()})
		wantKind(t, err, KindValidation, "")
	})
	t.Run("invalid id", func(t *testing.T) {
		_, err := s.AddToShow(ctx, AddShowSong{ShowID: "??", SongID: song.String(), Performer: "Asha"})
		wantKind(t, err, KindInvalid, msgInvalidID)
	})
	t.Run("missing show", func(t *testing.T) {
		_, err := s.AddToShow(ctx, AddShowSong{ShowID: ksid.NewID().String(), SongID: song.String(), Performer: "Asha"})
		wantKind(t, err, KindNotFound, msgShowNotFound)
	})
	t.Run("missing song", func(t *testing.T) {
		_, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: ksid.NewID().String(), Performer: "Asha", AdjustedScale: "E"})
		wantKind(t, err, KindNotFound, msgSongNotFound)
	})

	for i := range 3 {
		out, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: "Asha"})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if out.Message != msgEntryAdded {
			t.Errorf("message = %q", out.Message)
		}
	}
	if got := orders(t, s, show); len(got) != 3 || got[2] != 3 {
		t.Errorf("orders = %v", got)
	}
}

func TestAddToShowCopiesScale(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	in := validSong("Yesterday")
	in.MyScale = "D"
	song := mustAddSong(t, s, in)

	if _, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: "Asha"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: "Kishore", AdjustedScale: "G"}); err != nil {
		t.Fatal(err)
	}
	in.MyScale = "A"
	if _, err := s.EditSong(ctx, song.String(), in); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetShow(ctx, show.String())
	if err != nil {
		t.Fatal(err)
	}
	if got.Songs[0].AdjustedScale != "D" {
		t.Errorf("entry 1 scale = %q, want the scale at insertion time", got.Songs[0].AdjustedScale)
	}
	if got.Songs[1].AdjustedScale != "G" {
		t.Errorf("entry 2 scale = %q, want explicit G", got.Songs[1].AdjustedScale)
	}
}

func TestRemoveFromShow(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	var entries []ksid.ID
	for _, name := range []string{"One", "Two", "Three", "Four"} {
		song := mustAddSong(t, s, validSong(name))
		out, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: name})
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, out.ID)
	}

	out, err := s.RemoveFromShow(ctx, show.String(), entries[1].String())
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != msgEntryRemoved {
		t.Errorf("message = %q", out.Message)
	}
	got, err := s.Setlist(ctx, show.String())
	if err != nil {
		t.Fatal(err)
	}
	var performers []string
	for i, r := range got.Rows {
		if r.Order != i+1 {
			t.Errorf("row %d order = %d", i, r.Order)
		}
		performers = append(performers, r.Performer)
	}
	if want := []string{"One", "Three", "Four"}; len(performers) != 3 || performers[0] != want[0] || performers[1] != want[1] || performers[2] != want[2] {
		t.Errorf("performers = %v, want %v", performers, want)
	}

	_, err = s.RemoveFromShow(ctx, show.String(), entries[1].String())
	wantKind(t, err, KindNotFound, msgEntryNotFound)
	_, err = s.RemoveFromShow(ctx, ksid.NewID().String(), entries[0].String())
	wantKind(t, err, KindNotFound, msgShowNotFound)
	_, err = s.RemoveFromShow(ctx, show.String(), "")
	wantKind(t, err, KindInvalid, msgInvalidID)
}

func TestEditInShow(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	first := mustAddSong(t, s, validSong("First"))
	second := mustAddSong(t, s, validSong("Second"))
	for _, p := range []string{"Asha", "Kishore"} {
		if _, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: first.String(), Performer: p}); err != nil {
			t.Fatal(err)
		}
	}
	before, _ := s.GetShow(ctx, show.String())
	entry := before.Songs[1].ID.String()

	t.Run("no change", func(t *testing.T) {
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry, Performer: ptr("Kishore")})
		wantKind(t, err, KindNotFound, msgNoChange)
	})
	t.Run("nothing supplied", func(t *testing.T) {
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry})
		wantKind(t, err, KindNotFound, msgNoChange)
	})
	t.Run("empty performer", func(t *testing.T) {
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry, Performer: ptr("  ")})
		wantKind(t, err, KindValidation, "")
	})
	t.Run("missing entry", func(t *testing.T) {
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: ksid.NewID().String(), Performer: ptr("X")})
		wantKind(t, err, KindNotFound, msgNoChange)
	})
	t.Run("missing song", func(t *testing.T) {
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry, SongID: ptr(ksid.NewID().String())})
		wantKind(t, err, KindNotFound, msgSongNotFound)
	})
	t.Run("change", func(t *testing.T) {
		out, err := s.EditInShow(ctx, EditShowSong{
			ShowID:        show.String(),
			ShowSongID:    entry,
			SongID:        ptr(second.String()),
			AdjustedScale: ptr("Bb"),
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.Message != msgEntryUpdated {
			t.Errorf("message = %q", out.Message)
		}
		after, _ := s.GetShow(ctx, show.String())
		e := after.Songs[1]
		if e.SongID != second || e.AdjustedScale != "Bb" || e.Performer != "Kishore" || e.Order != 2 {
			t.Errorf("entry = %+v", e)
		}
		if after.Songs[0] != before.Songs[0] {
			t.Errorf("other entry changed: %+v", after.Songs[0])
		}
	})
	t.Run("clear scale", func(t *testing.T) {
		if _, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry, AdjustedScale: ptr(" ")}); err != nil {
			t.Fatal(err)
		}
		after, _ := s.GetShow(ctx, show.String())
		if e := after.Songs[1]; e.AdjustedScale != "" || e.Performer != "Kishore" {
			t.Errorf("entry = %+v", e)
		}
		_, err := s.EditInShow(ctx, EditShowSong{ShowID: show.String(), ShowSongID: entry, AdjustedScale: ptr("")})
		wantKind(t, err, KindNotFound, msgNoChange)
	})
}

func TestSetlistDanglingSong(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	song := mustAddSong(t, s, validSong("Gone"))
	kept := mustAddSong(t, s, validSong("Kept"))
	for _, id := range []ksid.ID{song, kept} {
		if _, err := s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: id.String(), Performer: "Asha"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.DeleteSong(ctx, song.String()); err != nil {
		t.Fatal(err)
	}
	d, err := s.Setlist(ctx, show.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Rows) != 2 {
		t.Fatalf("rows = %d", len(d.Rows))
	}
	if !d.Rows[0].Dangling() || d.Rows[0].AdjustedScale != "D" {
		t.Errorf("row 0 = %+v", d.Rows[0])
	}
	if d.Rows[1].Dangling() || *d.Rows[1].Name != "Kept" {
		t.Errorf("row 1 = %+v", d.Rows[1])
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := newService(t)
	ctx := t.Context()
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	song := mustAddSong(t, s, validSong("Yesterday"))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.AddToShow(ctx, AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: "Asha"})
		}()
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		switch KindOf(err) {
		case 0:
			ok++
		case KindStore:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if got := orders(t, s, show); len(got) != ok {
		t.Errorf("%d entries stored for %d successful adds", len(got), ok)
	}
}

// conflictStore always loses the setlist race.
type conflictStore struct {
	storage.Store
	mu    sync.Mutex
	calls int
}

func (c *conflictStore) ReplaceSetlist(context.Context, ksid.ID, int64, []entity.ShowSong) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return storage.ErrConflict
}

func TestSetlistRetriesExhausted(t *testing.T) {
	st, err := jsonlstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cs := &conflictStore{Store: st}
	s := New(cs)
	show := mustAddShow(t, s, "Gala", "2025-03-01")
	song := mustAddSong(t, s, validSong("Yesterday"))
	_, err = s.AddToShow(t.Context(), AddShowSong{ShowID: show.String(), SongID: song.String(), Performer: "Asha"})
	wantKind(t, err, KindStore, msgEntryAddFailed)
	if cs.calls != maxSetlistAttempts {
		t.Errorf("calls = %d, want %d", cs.calls, maxSetlistAttempts)
	}
}

func TestRenumber(t *testing.T) {
	in := []entity.ShowSong{{Performer: "c", Order: 7}, {Performer: "a", Order: 2}, {Performer: "b", Order: 5}}
	got := Renumber(in)
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Performer != want || got[i].Order != i+1 {
			t.Errorf("got[%d] = %+v", i, got[i])
		}
	}
	if in[0].Order != 7 {
		t.Error("input modified")
	}
}
