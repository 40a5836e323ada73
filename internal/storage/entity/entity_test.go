package entity

import (
	"testing"

	"github.com/maruel/ksid"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%q.Valid() = false", c)
		}
	}
	for _, c := range []Category{"", "solo", "Choir"} {
		if c.Valid() {
			t.Errorf("%q.Valid() = true", c)
		}
	}
}

func TestShowClone(t *testing.T) {
	s := &Show{ID: ksid.NewID(), Name: "Gala", Songs: []ShowSong{{ID: ksid.NewID(), SongID: ksid.NewID(), Order: 1}}}
	c := s.Clone()
	c.Songs[0].Performer = "changed"
	if s.Songs[0].Performer != "" {
		t.Error("Clone shares the setlist slice")
	}
}

func TestCheckDense(t *testing.T) {
	entry := func(order int) ShowSong { return ShowSong{Order: order} }
	tests := []struct {
		name    string
		entries []ShowSong
		wantErr bool
	}{
		{"empty", nil, false},
		{"ordered", []ShowSong{entry(1), entry(2), entry(3)}, false},
		{"shuffled", []ShowSong{entry(3), entry(1), entry(2)}, false},
		{"gap", []ShowSong{entry(1), entry(3)}, true},
		{"duplicate", []ShowSong{entry(1), entry(1)}, true},
		{"zero", []ShowSong{entry(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDense(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckDense() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowValidate(t *testing.T) {
	valid := func() *Show {
		return &Show{
			ID:   ksid.NewID(),
			Name: "Gala",
			Songs: []ShowSong{
				{ID: ksid.NewID(), SongID: ksid.NewID(), Order: 1},
				{ID: ksid.NewID(), SongID: ksid.NewID(), Order: 2},
			},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Show)
	}{
		{"no id", func(s *Show) { s.ID = 0 }},
		{"no name", func(s *Show) { s.Name = "" }},
		{"entry without song", func(s *Show) { s.Songs[1].SongID = 0 }},
		{"sparse", func(s *Show) { s.Songs[1].Order = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
