package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/storage/jsonlstore"
	"github.com/stagehand/stagehand/internal/tableview"
)

func statusOf(err error) int {
	var e dto.ErrorWithStatus
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	if err != nil {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func newCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	store, err := jsonlstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return catalog.New(store)
}

func TestAPIError(t *testing.T) {
	svc := newCatalog(t)
	ctx := t.Context()
	_, validation := svc.AddSong(ctx, catalog.SongInput{})
	_, invalid := svc.GetSong(ctx, "!!!")
	_, missing := svc.GetShow(ctx, "ABCDEF")

	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"validation", validation, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"invalid", invalid, http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
		{"not found", missing, http.StatusNotFound, dto.ErrorCodeNotFound},
		{"page size", fmt.Errorf("x: %w", tableview.ErrInvalidPageSize), http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
		{"column", tableview.ErrUnknownColumn, http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e dto.ErrorWithStatus
			if !errors.As(apiError(tt.err), &e) {
				t.Fatalf("apiError(%v) is not an ErrorWithStatus", tt.err)
			}
			if e.StatusCode() != tt.status || e.Code() != tt.code {
				t.Errorf("got %d %q, want %d %q", e.StatusCode(), e.Code(), tt.status, tt.code)
			}
		})
	}

	t.Run("fields", func(t *testing.T) {
		var e dto.ErrorWithStatus
		if !errors.As(apiError(validation), &e) {
			t.Fatal("not an ErrorWithStatus")
		}
		if got := e.Fields()["name"]; len(got) != 1 || got[0] != "Song name is required." {
			t.Errorf("name = %v", got)
		}
	})
	t.Run("passthrough", func(t *testing.T) {
		other := errors.New("boom")
		if got := apiError(other); got != other {
			t.Errorf("got %v", got)
		}
		if apiError(nil) != nil {
			t.Error("nil should stay nil")
		}
	})
}

func TestTable(t *testing.T) {
	var songs []*entity.Song
	for _, n := range []string{"Yesterday", "Today", "Tomorrow", "Abhi", "Kal", "Aaj", "Dil", "Pyar", "Ek", "Do", "Teen", "Char"} {
		songs = append(songs, &entity.Song{Name: n, Singer: "S", Category: entity.CategorySolo})
	}
	name := func(s *entity.Song) string { return s.Name }

	t.Run("paging", func(t *testing.T) {
		got, err := table(songs, songOptions(), &dto.ListParams{Size: 5, Page: 3}, name)
		if err != nil {
			t.Fatal(err)
		}
		// Aaj Abhi Char Dil Do | Ek Kal Pyar Teen Today | Tomorrow Yesterday
		if diff := cmp.Diff([]string{"Tomorrow", "Yesterday"}, got.Items); diff != "" {
			t.Errorf("page 3 (-want +got):\n%s", diff)
		}
	})
	t.Run("page 2 of 3", func(t *testing.T) {
		got, err := table(songs, songOptions(), &dto.ListParams{Size: 5, Page: 2}, name)
		if err != nil {
			t.Fatal(err)
		}
		want := tableview.View{
			Page: 2, PageSize: 5, TotalItems: 12, TotalPages: 3, CanNextPage: true, CanPrevPage: true,
			Sort: &tableview.Sort{Key: "name", Dir: tableview.Ascending},
		}
		if diff := cmp.Diff(want, got.View); diff != "" {
			t.Errorf("view (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"Ek", "Kal", "Pyar", "Teen", "Today"}, got.Items); diff != "" {
			t.Errorf("items (-want +got):\n%s", diff)
		}
	})
	t.Run("search", func(t *testing.T) {
		got, err := table(songs, songOptions(), &dto.ListParams{Query: "to"}, name)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"Today", "Tomorrow"}, got.Items); diff != "" {
			t.Errorf("items (-want +got):\n%s", diff)
		}
	})
	t.Run("bad size", func(t *testing.T) {
		_, err := table(songs, songOptions(), &dto.ListParams{Size: 7}, name)
		if statusOf(err) != http.StatusBadRequest {
			t.Errorf("err = %v", err)
		}
	})
}

func TestSetlistColumnsDangling(t *testing.T) {
	rows := catalog.JoinSetlist([]entity.ShowSong{
		{Performer: "Asha", Order: 2},
		{Performer: "Lata", Order: 1},
	}, nil)
	got, err := table(rows, setlistOptions(), &dto.ListParams{Sort: "name"}, setlistRowToDTO)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d rows", len(got.Items))
	}
	for _, r := range got.Items {
		if r.Name != nil || r.Category != nil {
			t.Errorf("dangling row %+v has song fields", r)
		}
	}
}

func TestEmptyOptionalSortsLast(t *testing.T) {
	songs := []*entity.Song{
		{Name: "A", Category: entity.CategorySolo},
		{Name: "B", Movie: "Guide", Category: entity.CategorySolo},
		{Name: "C", Movie: "Anand", Category: entity.CategorySolo},
	}
	shows := []*entity.Show{
		{Name: "NoVenue"},
		{Name: "Hall", Venue: "Hall"},
		{Name: "Arena", Venue: "Arena"},
	}
	movie := "Guide"
	blank := ""
	rows := []*catalog.SetlistRow{
		{Order: 1, Movie: &blank},
		{Order: 2},
		{Order: 3, Movie: &movie},
	}
	songName := func(s *entity.Song) string { return s.Name }
	showName := func(s *entity.Show) string { return s.Name }
	rowOrder := func(r *catalog.SetlistRow) int { return r.Order }

	for _, dir := range []string{"asc", "desc"} {
		t.Run("songs by movie "+dir, func(t *testing.T) {
			got, err := table(songs, songOptions(), &dto.ListParams{Sort: "movie", Dir: dir}, songName)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"C", "B", "A"}
			if dir == "desc" {
				want = []string{"B", "C", "A"}
			}
			if diff := cmp.Diff(want, got.Items); diff != "" {
				t.Errorf("items (-want +got):\n%s", diff)
			}
		})
		t.Run("shows by venue "+dir, func(t *testing.T) {
			got, err := table(shows, showOptions(), &dto.ListParams{Sort: "venue", Dir: dir}, showName)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"Arena", "Hall", "NoVenue"}
			if dir == "desc" {
				want = []string{"Hall", "Arena", "NoVenue"}
			}
			if diff := cmp.Diff(want, got.Items); diff != "" {
				t.Errorf("items (-want +got):\n%s", diff)
			}
		})
		t.Run("setlist by movie "+dir, func(t *testing.T) {
			got, err := table(rows, setlistOptions(), &dto.ListParams{Sort: "movie", Dir: dir}, rowOrder)
			if err != nil {
				t.Fatal(err)
			}
			if got.Items[0] != 3 {
				t.Errorf("items = %v, want the row with a movie first", got.Items)
			}
		})
	}
}
