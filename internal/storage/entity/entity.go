// Package entity defines the documents persisted by the storage backends.
//
// A Show embeds its setlist as an ordered array of ShowSong entries. Entries
// hold a weak reference to a Song: deleting the song leaves dangling entries
// behind, which readers tolerate.
package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/maruel/ksid"
)

var (
	errIDRequired     = errors.New("id is required")
	errNameRequired   = errors.New("name is required")
	errSongIDRequired = errors.New("song id is required")
)

// Category classifies a song by its vocal arrangement.
type Category string

// Valid categories.
const (
	CategorySolo   Category = "Solo"
	CategoryDuet   Category = "Duet"
	CategoryGroup  Category = "Group"
	CategoryMale   Category = "Male"
	CategoryFemale Category = "Female"
	CategoryMixed  Category = "Mixed"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategorySolo, CategoryDuet, CategoryGroup, CategoryMale, CategoryFemale, CategoryMixed}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Song is a catalog entry.
type Song struct {
	ID            ksid.ID   `json:"id" jsonschema:"description=Unique song identifier"`
	Name          string    `json:"name" jsonschema:"description=Song title"`
	Singer        string    `json:"singer" jsonschema:"description=Original singer"`
	Lyricist      string    `json:"lyricist" jsonschema:"description=Lyricist"`
	Movie         string    `json:"movie,omitempty" jsonschema:"description=Movie the song comes from"`
	Actor         string    `json:"actor,omitempty" jsonschema:"description=Actor on screen"`
	Director      string    `json:"director,omitempty" jsonschema:"description=Music director"`
	Category      Category  `json:"category" jsonschema:"description=Vocal arrangement,enum=Solo,enum=Duet,enum=Group,enum=Male,enum=Female,enum=Mixed"`
	OriginalScale string    `json:"original_scale" jsonschema:"description=Key of the original recording"`
	MyScale       string    `json:"my_scale" jsonschema:"description=Key the performer sings it in"`
	YoutubeLink   string    `json:"youtube_link,omitempty" jsonschema:"description=Reference recording URL"`
	Notes         string    `json:"notes,omitempty" jsonschema:"description=Free form notes"`
	Created       time.Time `json:"created" jsonschema:"description=Creation timestamp"`
	Modified      time.Time `json:"modified" jsonschema:"description=Last modification timestamp"`
}

// Clone returns a copy of the song.
func (s *Song) Clone() *Song {
	c := *s
	return &c
}

// GetID returns the song's ID.
func (s *Song) GetID() ksid.ID {
	return s.ID
}

// Validate checks storage level integrity. User input validation lives in
// the catalog package.
func (s *Song) Validate() error {
	if s.ID.IsZero() {
		return errIDRequired
	}
	if s.Name == "" {
		return errNameRequired
	}
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("invalid category %q", s.Category)
	}
	return nil
}

// ShowSong is one entry of a show's setlist.
//
// AdjustedScale is copied from the song when the entry is created and
// diverges from it afterwards.
type ShowSong struct {
	ID            ksid.ID `json:"id" jsonschema:"description=Entry identifier, unique within the show"`
	SongID        ksid.ID `json:"song_id" jsonschema:"description=Referenced song"`
	Performer     string  `json:"performer" jsonschema:"description=Who performs the song"`
	AdjustedScale string  `json:"adjusted_scale" jsonschema:"description=Key used for this performance"`
	Order         int     `json:"order" jsonschema:"description=1-based position in the setlist"`
}

// Show is a performance event with its setlist.
type Show struct {
	ID       ksid.ID    `json:"id" jsonschema:"description=Unique show identifier"`
	Name     string     `json:"name" jsonschema:"description=Show name"`
	Date     time.Time  `json:"date" jsonschema:"description=Show date"`
	Venue    string     `json:"venue,omitempty" jsonschema:"description=Where the show takes place"`
	Songs    []ShowSong `json:"songs" jsonschema:"description=Setlist entries"`
	Rev      int64      `json:"rev" jsonschema:"description=Revision bumped on every setlist write"`
	Created  time.Time  `json:"created" jsonschema:"description=Creation timestamp"`
	Modified time.Time  `json:"modified" jsonschema:"description=Last modification timestamp"`
}

// Clone returns a deep copy of the show.
func (s *Show) Clone() *Show {
	c := *s
	if s.Songs != nil {
		c.Songs = slices.Clone(s.Songs)
	}
	return &c
}

// GetID returns the show's ID.
func (s *Show) GetID() ksid.ID {
	return s.ID
}

// Validate checks storage level integrity, including setlist density.
func (s *Show) Validate() error {
	if s.ID.IsZero() {
		return errIDRequired
	}
	if s.Name == "" {
		return errNameRequired
	}
	for i := range s.Songs {
		if s.Songs[i].ID.IsZero() {
			return fmt.Errorf("setlist entry %d: %w", i, errIDRequired)
		}
		if s.Songs[i].SongID.IsZero() {
			return fmt.Errorf("setlist entry %d: %w", i, errSongIDRequired)
		}
	}
	return CheckDense(s.Songs)
}

// Entry returns the index of the setlist entry with the given ID, or -1.
func (s *Show) Entry(id ksid.ID) int {
	return slices.IndexFunc(s.Songs, func(e ShowSong) bool { return e.ID == id })
}

// CheckDense verifies that the orders of entries are exactly 1..N.
func CheckDense(entries []ShowSong) error {
	seen := make([]bool, len(entries)+1)
	for _, e := range entries {
		if e.Order < 1 || e.Order > len(entries) {
			return fmt.Errorf("setlist order %d out of range 1..%d", e.Order, len(entries))
		}
		if seen[e.Order] {
			return fmt.Errorf("setlist order %d used twice", e.Order)
		}
		seen[e.Order] = true
	}
	return nil
}
