package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// SongInput holds the editable fields of a song.
type SongInput struct {
	Name          string
	Singer        string
	Lyricist      string
	Movie         string
	Actor         string
	Director      string
	Category      string
	OriginalScale string
	MyScale       string
	YoutubeLink   string
	Notes         string
}

func (in *SongInput) normalize() {
	for _, p := range []*string{
		&in.Name, &in.Singer, &in.Lyricist, &in.Movie, &in.Actor, &in.Director,
		&in.Category, &in.OriginalScale, &in.MyScale, &in.YoutubeLink, &in.Notes,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// Validate reports every invalid field at once.
func (in *SongInput) Validate() error {
	in.normalize()
	f := FieldErrors{}
	if in.Name == "" {
		f.Add("name", msgSongNameRequired)
	}
	if in.Singer == "" {
		f.Add("singer", msgSingerRequired)
	}
	if in.Lyricist == "" {
		f.Add("lyricist", msgLyricistRequired)
	}
	if !entity.Category(in.Category).Valid() {
		f.Add("category", msgCategoryInvalid)
	}
	if in.OriginalScale == "" {
		f.Add("originalScale", msgOrigScaleRequired)
	}
	if in.MyScale == "" {
		f.Add("myScale", msgMyScaleRequired)
	}
	if in.YoutubeLink != "" && !isWebURL(in.YoutubeLink) {
		f.Add("youtubeLink", msgYoutubeLinkInvalid)
	}
	return f.Err()
}

func isWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (in *SongInput) apply(s *entity.Song) {
	s.Name = in.Name
	s.Singer = in.Singer
	s.Lyricist = in.Lyricist
	s.Movie = in.Movie
	s.Actor = in.Actor
	s.Director = in.Director
	s.Category = entity.Category(in.Category)
	s.OriginalScale = in.OriginalScale
	s.MyScale = in.MyScale
	s.YoutubeLink = in.YoutubeLink
	s.Notes = in.Notes
}

// AddSong validates in and stores a new song.
func (s *Service) AddSong(ctx context.Context, in SongInput) (*Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	song := &entity.Song{ID: ksid.NewID(), Created: now, Modified: now}
	in.apply(song)
	if err := s.store.InsertSong(ctx, song); err != nil {
		return nil, fail(ctx, msgSongAddFailed, err)
	}
	return &Outcome{Message: msgSongAdded, ID: song.ID}, nil
}

// EditSong replaces the editable fields of an existing song. Setlist entries
// keep their own adjusted scale.
func (s *Service) EditSong(ctx context.Context, songID string, in SongInput) (*Outcome, error) {
	id, err := parseID(songID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(msgSongNotFound)
		}
		return nil, fail(ctx, msgSongUpdateFailed, err)
	}
	in.apply(song)
	song.Modified = s.now()
	if err := s.store.UpdateSong(ctx, song); err != nil {
		if isNotFound(err) {
			return nil, notFound(msgSongNotFound)
		}
		return nil, fail(ctx, msgSongUpdateFailed, err)
	}
	return &Outcome{Message: msgSongUpdated, ID: id}, nil
}

// DeleteSong removes a song. Setlist entries pointing at it are left alone
// and render as dangling.
func (s *Service) DeleteSong(ctx context.Context, songID string) (*Outcome, error) {
	id, err := parseID(songID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSong(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, notFound(msgSongNotFound)
		}
		return nil, fail(ctx, msgSongDeleteFailed, err)
	}
	return &Outcome{Message: msgSongDeleted, ID: id}, nil
}

// GetSong returns one song.
func (s *Service) GetSong(ctx context.Context, songID string) (*entity.Song, error) {
	id, err := parseID(songID)
	if err != nil {
		return nil, err
	}
	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(msgSongNotFound)
		}
		return nil, fail(ctx, msgSongsLoadFailed, err)
	}
	return song, nil
}

// ListSongs returns the library sorted by name.
func (s *Service) ListSongs(ctx context.Context) ([]*entity.Song, error) {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, fail(ctx, msgSongsLoadFailed, err)
	}
	return songs, nil
}

// SongsByID returns the songs with the given IDs, keyed by ID. Unknown IDs
// are skipped.
func (s *Service) SongsByID(ctx context.Context, ids []ksid.ID) (map[ksid.ID]*entity.Song, error) {
	out := make(map[ksid.ID]*entity.Song, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	want := make(map[ksid.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, fail(ctx, msgSongsLoadFailed, err)
	}
	for _, song := range songs {
		if want[song.ID] {
			out[song.ID] = song
		}
	}
	return out, nil
}
