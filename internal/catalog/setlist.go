package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// AddShowSong is the input of AddToShow.
type AddShowSong struct {
	ShowID    string
	SongID    string
	Performer string
	// AdjustedScale defaults to the song's current scale when empty.
	AdjustedScale string
}

// Validate reports missing fields.
func (in *AddShowSong) Validate() error {
	in.SongID = strings.TrimSpace(in.SongID)
	in.Performer = strings.TrimSpace(in.Performer)
	in.AdjustedScale = strings.TrimSpace(in.AdjustedScale)
	f := FieldErrors{}
	if in.SongID == "" {
		f.Add("songId", msgSelectSong)
	}
	if in.Performer == "" {
		f.Add("performer", msgPerformerRequired)
	}
	return f.Err()
}

// EditShowSong is the input of EditInShow. Nil fields are left unchanged.
type EditShowSong struct {
	ShowID        string
	ShowSongID    string
	SongID        *string
	Performer     *string
	AdjustedScale *string
}

// Validate rejects supplied but empty song and performer values.
func (in *EditShowSong) Validate() error {
	f := FieldErrors{}
	if in.SongID != nil {
		*in.SongID = strings.TrimSpace(*in.SongID)
		if *in.SongID == "" {
			f.Add("songId", msgSelectSong)
		}
	}
	if in.Performer != nil {
		*in.Performer = strings.TrimSpace(*in.Performer)
		if *in.Performer == "" {
			f.Add("performer", msgPerformerRequired)
		}
	}
	if in.AdjustedScale != nil {
		*in.AdjustedScale = strings.TrimSpace(*in.AdjustedScale)
	}
	return f.Err()
}

// AddToShow appends a song to the end of a show's setlist.
func (s *Service) AddToShow(ctx context.Context, in AddShowSong) (*Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	showID, err := parseID(in.ShowID)
	if err != nil {
		return nil, err
	}
	songID, err := parseID(in.SongID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetShow(ctx, showID); err != nil {
		if isNotFound(err) {
			return nil, notFound(msgShowNotFound)
		}
		return nil, fail(ctx, msgEntryAddFailed, err)
	}
	song, err := s.store.GetSong(ctx, songID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(msgSongNotFound)
		}
		return nil, fail(ctx, msgEntryAddFailed, err)
	}
	scale := in.AdjustedScale
	if scale == "" {
		scale = song.MyScale
	}
	entryID := ksid.NewID()
	err = s.updateSetlist(ctx, showID, func(show *entity.Show) ([]entity.ShowSong, error) {
		return append(show.Songs, entity.ShowSong{
			ID:            entryID,
			SongID:        songID,
			Performer:     in.Performer,
			AdjustedScale: scale,
			Order:         len(show.Songs) + 1,
		}), nil
	})
	if err != nil {
		return nil, fail(ctx, msgEntryAddFailed, err)
	}
	return &Outcome{Message: msgEntryAdded, ID: entryID}, nil
}

// EditInShow changes the supplied fields of one setlist entry. The entry
// keeps its position.
func (s *Service) EditInShow(ctx context.Context, in EditShowSong) (*Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	showID, err := parseID(in.ShowID)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID(in.ShowSongID)
	if err != nil {
		return nil, err
	}
	var songID ksid.ID
	if in.SongID != nil {
		if songID, err = parseID(*in.SongID); err != nil {
			return nil, err
		}
		if _, err := s.store.GetSong(ctx, songID); err != nil {
			if isNotFound(err) {
				return nil, notFound(msgSongNotFound)
			}
			return nil, fail(ctx, msgEntryUpdateFailed, err)
		}
	}
	err = s.updateSetlist(ctx, showID, func(show *entity.Show) ([]entity.ShowSong, error) {
		i := show.Entry(entryID)
		if i < 0 {
			return nil, notFound(msgNoChange)
		}
		e := show.Songs[i]
		before := e
		if in.SongID != nil {
			e.SongID = songID
		}
		if in.Performer != nil {
			e.Performer = *in.Performer
		}
		if in.AdjustedScale != nil {
			e.AdjustedScale = *in.AdjustedScale
		}
		if e == before {
			return nil, notFound(msgNoChange)
		}
		show.Songs[i] = e
		return show.Songs, nil
	})
	if err != nil {
		return nil, fail(ctx, msgEntryUpdateFailed, err)
	}
	return &Outcome{Message: msgEntryUpdated, ID: entryID}, nil
}

// RemoveFromShow deletes one setlist entry and renumbers the rest 1..N-1,
// keeping their relative order. The result is written in a single update.
func (s *Service) RemoveFromShow(ctx context.Context, showID, showSongID string) (*Outcome, error) {
	sid, err := parseID(showID)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID(showSongID)
	if err != nil {
		return nil, err
	}
	err = s.updateSetlist(ctx, sid, func(show *entity.Show) ([]entity.ShowSong, error) {
		i := show.Entry(entryID)
		if i < 0 {
			return nil, notFound(msgEntryNotFound)
		}
		return Renumber(slices.Delete(show.Songs, i, i+1)), nil
	})
	if err != nil {
		return nil, fail(ctx, msgEntryRemoveFailed, err)
	}
	return &Outcome{Message: msgEntryRemoved, ID: entryID}, nil
}

// Renumber sorts entries by their current order and assigns 1..N.
func Renumber(entries []entity.ShowSong) []entity.ShowSong {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b entity.ShowSong) int {
		return cmp.Compare(a.Order, b.Order)
	})
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

// updateSetlist runs a compare-and-swap loop on the show's revision: it reads
// the show, lets fn compute the new setlist and writes it only if nobody
// else wrote in between.
func (s *Service) updateSetlist(ctx context.Context, showID ksid.ID, fn func(*entity.Show) ([]entity.ShowSong, error)) error {
	for attempt := 1; attempt <= maxSetlistAttempts; attempt++ {
		show, err := s.store.GetShow(ctx, showID)
		if err != nil {
			if isNotFound(err) {
				return notFound(msgShowNotFound)
			}
			return err
		}
		songs, err := fn(show)
		if err != nil {
			return err
		}
		if err := entity.CheckDense(songs); err != nil {
			return fmt.Errorf("refusing to write setlist of show %s: %w", showID, err)
		}
		err = s.store.ReplaceSetlist(ctx, showID, show.Rev, songs)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, storage.ErrConflict):
			slog.DebugContext(ctx, "Setlist write conflict", "show", showID, "attempt", attempt)
			continue
		case isNotFound(err):
			return notFound(msgShowNotFound)
		default:
			return err
		}
	}
	return fmt.Errorf("show %s: gave up after %d attempts: %w", showID, maxSetlistAttempts, storage.ErrConflict)
}
