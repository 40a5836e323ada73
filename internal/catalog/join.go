package catalog

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// SetlistRow is a setlist entry joined with the display fields of its song.
//
// The song fields are borrowed for rendering and are nil when the entry
// references a song that no longer exists.
type SetlistRow struct {
	ID            ksid.ID
	SongID        ksid.ID
	Performer     string
	AdjustedScale string
	Order         int

	Name        *string
	Singer      *string
	Lyricist    *string
	Movie       *string
	Category    *entity.Category
	YoutubeLink *string
	MyScale     *string
}

// Dangling reports whether the referenced song is gone.
func (r *SetlistRow) Dangling() bool {
	return r.Name == nil
}

// ShowDetail is a show with its joined setlist.
type ShowDetail struct {
	ID       ksid.ID
	Name     string
	Date     time.Time
	Venue    string
	Rev      int64
	Created  time.Time
	Modified time.Time
	Rows     []*SetlistRow
}

// Setlist loads a show and joins every entry with its song, ordered by
// position.
func (s *Service) Setlist(ctx context.Context, showID string) (*ShowDetail, error) {
	show, err := s.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	ids := make([]ksid.ID, 0, len(show.Songs))
	for _, e := range show.Songs {
		ids = append(ids, e.SongID)
	}
	songs, err := s.SongsByID(ctx, ids)
	if err != nil {
		return nil, fail(ctx, msgSetlistLoadFailed, err)
	}
	return &ShowDetail{
		ID:       show.ID,
		Name:     show.Name,
		Date:     show.Date,
		Venue:    show.Venue,
		Rev:      show.Rev,
		Created:  show.Created,
		Modified: show.Modified,
		Rows:     JoinSetlist(show.Songs, songs),
	}, nil
}

// JoinSetlist joins entries with songs and sorts the rows by order.
func JoinSetlist(entries []entity.ShowSong, songs map[ksid.ID]*entity.Song) []*SetlistRow {
	rows := make([]*SetlistRow, 0, len(entries))
	for _, e := range entries {
		r := &SetlistRow{
			ID:            e.ID,
			SongID:        e.SongID,
			Performer:     e.Performer,
			AdjustedScale: e.AdjustedScale,
			Order:         e.Order,
		}
		if song := songs[e.SongID]; song != nil {
			r.Name = &song.Name
			r.Singer = &song.Singer
			r.Lyricist = &song.Lyricist
			r.Movie = &song.Movie
			r.Category = &song.Category
			r.YoutubeLink = &song.YoutubeLink
			r.MyScale = &song.MyScale
		}
		rows = append(rows, r)
	}
	slices.SortStableFunc(rows, func(a, b *SetlistRow) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return rows
}
