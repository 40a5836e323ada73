package handlers

import (
	"time"

	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/storage/entity"
	"github.com/stagehand/stagehand/internal/storage/history"
)

// --- Time formatting ---

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// --- Request to input conversions ---

func songInput(req *dto.SongRequest) catalog.SongInput {
	return catalog.SongInput{
		Name:          req.Name,
		Singer:        req.Singer,
		Lyricist:      req.Lyricist,
		Movie:         req.Movie,
		Actor:         req.Actor,
		Director:      req.Director,
		Category:      req.Category,
		OriginalScale: req.OriginalScale,
		MyScale:       req.MyScale,
		YoutubeLink:   req.YoutubeLink,
		Notes:         req.Notes,
	}
}

func showInput(req *dto.ShowRequest) catalog.ShowInput {
	return catalog.ShowInput{Name: req.Name, Date: req.Date, Venue: req.Venue}
}

// --- Entity to DTO conversions ---

func songToDTO(s *entity.Song) dto.Song {
	return dto.Song{
		ID:            s.ID.String(),
		Name:          s.Name,
		Singer:        s.Singer,
		Lyricist:      s.Lyricist,
		Movie:         s.Movie,
		Actor:         s.Actor,
		Director:      s.Director,
		Category:      string(s.Category),
		OriginalScale: s.OriginalScale,
		MyScale:       s.MyScale,
		YoutubeLink:   s.YoutubeLink,
		Notes:         s.Notes,
		Created:       s.Created,
		Modified:      s.Modified,
	}
}

func showSummaryToDTO(s *entity.Show) dto.ShowSummary {
	return dto.ShowSummary{
		ID:        s.ID.String(),
		Name:      s.Name,
		Date:      formatDate(s.Date),
		Venue:     s.Venue,
		SongCount: len(s.Songs),
	}
}

func setlistRowToDTO(r *catalog.SetlistRow) dto.SetlistRow {
	out := dto.SetlistRow{
		ID:            r.ID.String(),
		SongID:        r.SongID.String(),
		Performer:     r.Performer,
		AdjustedScale: r.AdjustedScale,
		Order:         r.Order,
		Name:          r.Name,
		Singer:        r.Singer,
		Lyricist:      r.Lyricist,
		Movie:         r.Movie,
		YoutubeLink:   r.YoutubeLink,
		MyScale:       r.MyScale,
	}
	if r.Category != nil {
		c := string(*r.Category)
		out.Category = &c
	}
	return out
}

func showToDTO(d *catalog.ShowDetail) dto.Show {
	rows := make([]dto.SetlistRow, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, setlistRowToDTO(r))
	}
	return dto.Show{
		ID:       d.ID.String(),
		Name:     d.Name,
		Date:     formatDate(d.Date),
		Venue:    d.Venue,
		Rev:      d.Rev,
		Created:  d.Created,
		Modified: d.Modified,
		Songs:    rows,
	}
}

func commitToDTO(c *history.Commit) dto.Commit {
	return dto.Commit{
		Hash:    c.Hash,
		Message: c.Message,
		Author:  c.Author,
		When:    c.When,
		Files:   c.Files,
	}
}
