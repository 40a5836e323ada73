package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/storage/entity"
)

// ShowInput holds the editable fields of a show.
type ShowInput struct {
	Name  string
	Date  string
	Venue string

	date time.Time
}

// Validate checks the fields and parses Date. Both "2006-01-02" and RFC 3339
// timestamps are accepted.
func (in *ShowInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Date = strings.TrimSpace(in.Date)
	in.Venue = strings.TrimSpace(in.Venue)
	f := FieldErrors{}
	if in.Name == "" {
		f.Add("name", msgShowNameRequired)
	}
	if in.Date == "" {
		f.Add("date", msgShowDateRequired)
	} else if d, err := ParseDate(in.Date); err != nil {
		f.Add("date", msgShowDateInvalid)
	} else {
		in.date = d
	}
	return f.Err()
}

// ParseDate parses a calendar date or an RFC 3339 timestamp into UTC.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return d.UTC(), nil
}

// AddShow stores a new show with an empty setlist.
func (s *Service) AddShow(ctx context.Context, in ShowInput) (*Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	show := &entity.Show{
		ID:       ksid.NewID(),
		Name:     in.Name,
		Date:     in.date,
		Venue:    in.Venue,
		Songs:    []entity.ShowSong{},
		Created:  now,
		Modified: now,
	}
	if err := s.store.InsertShow(ctx, show); err != nil {
		return nil, fail(ctx, msgShowAddFailed, err)
	}
	return &Outcome{Message: msgShowAdded, ID: show.ID}, nil
}

// EditShow changes name, date and venue. The setlist is untouched.
func (s *Service) EditShow(ctx context.Context, showID string, in ShowInput) (*Outcome, error) {
	id, err := parseID(showID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	show := &entity.Show{ID: id, Name: in.Name, Date: in.date, Venue: in.Venue, Modified: s.now()}
	if err := s.store.UpdateShowInfo(ctx, show); err != nil {
		if isNotFound(err) {
			return nil, notFound(msgShowNotFound)
		}
		return nil, fail(ctx, msgShowUpdateFailed, err)
	}
	return &Outcome{Message: msgShowUpdated, ID: id}, nil
}

// DeleteShow removes a show and its setlist.
func (s *Service) DeleteShow(ctx context.Context, showID string) (*Outcome, error) {
	id, err := parseID(showID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteShow(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, notFound(msgShowNotFound)
		}
		return nil, fail(ctx, msgShowDeleteFailed, err)
	}
	return &Outcome{Message: msgShowDeleted, ID: id}, nil
}

// GetShow returns one show with its raw setlist.
func (s *Service) GetShow(ctx context.Context, showID string) (*entity.Show, error) {
	id, err := parseID(showID)
	if err != nil {
		return nil, err
	}
	show, err := s.store.GetShow(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(msgShowNotFound)
		}
		return nil, fail(ctx, msgShowsLoadFailed, err)
	}
	return show, nil
}

// ListShows returns every show, most recent first.
func (s *Service) ListShows(ctx context.Context) ([]*entity.Show, error) {
	shows, err := s.store.ListShows(ctx)
	if err != nil {
		return nil, fail(ctx, msgShowsLoadFailed, err)
	}
	return shows, nil
}
