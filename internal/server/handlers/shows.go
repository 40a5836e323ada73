package handlers

import (
	"context"

	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/reqctx"
)

// ShowHandler handles shows and their setlists.
type ShowHandler struct {
	svc *catalog.Service
}

// NewShowHandler creates a new show handler.
func NewShowHandler(svc *catalog.Service) *ShowHandler {
	return &ShowHandler{svc: svc}
}

// ListShows returns one page of shows, newest first unless sorted.
func (h *ShowHandler) ListShows(ctx context.Context, req *dto.ListShowsRequest) (*dto.DataResponse[*dto.Table[dto.ShowSummary]], error) {
	shows, err := h.svc.ListShows(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	t, err := table(shows, showOptions(), &req.ListParams, showSummaryToDTO)
	if err != nil {
		return nil, err
	}
	return dto.Data(t), nil
}

// GetShow returns a show with its full setlist in order.
func (h *ShowHandler) GetShow(ctx context.Context, req *dto.IDRequest) (*dto.DataResponse[dto.Show], error) {
	d, err := h.svc.Setlist(ctx, req.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return dto.Data(showToDTO(d)), nil
}

// ListSetlist returns one page of a show's setlist.
func (h *ShowHandler) ListSetlist(ctx context.Context, req *dto.SetlistRequest) (*dto.DataResponse[*dto.Table[dto.SetlistRow]], error) {
	d, err := h.svc.Setlist(ctx, req.ID)
	if err != nil {
		return nil, apiError(err)
	}
	t, err := table(d.Rows, setlistOptions(), &req.ListParams, setlistRowToDTO)
	if err != nil {
		return nil, err
	}
	return dto.Data(t), nil
}

// CreateShow adds a show with an empty setlist.
func (h *ShowHandler) CreateShow(ctx context.Context, _ *reqctx.Session, req *dto.ShowRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.AddShow(ctx, showInput(req)))
}

// UpdateShow changes the name, date and venue of a show.
func (h *ShowHandler) UpdateShow(ctx context.Context, _ *reqctx.Session, req *dto.ShowRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.EditShow(ctx, req.ID, showInput(req)))
}

// DeleteShow removes a show and its setlist.
func (h *ShowHandler) DeleteShow(ctx context.Context, _ *reqctx.Session, req *dto.IDRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.DeleteShow(ctx, req.ID))
}

// AddSong appends a song to the setlist.
func (h *ShowHandler) AddSong(ctx context.Context, _ *reqctx.Session, req *dto.AddShowSongRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.AddToShow(ctx, catalog.AddShowSong{
		ShowID:        req.ShowID,
		SongID:        req.SongID,
		Performer:     req.Performer,
		AdjustedScale: req.AdjustedScale,
	}))
}

// EditSong changes the supplied fields of a setlist entry.
func (h *ShowHandler) EditSong(ctx context.Context, _ *reqctx.Session, req *dto.EditShowSongRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.EditInShow(ctx, catalog.EditShowSong{
		ShowID:        req.ShowID,
		ShowSongID:    req.ShowSongID,
		SongID:        req.SongID,
		Performer:     req.Performer,
		AdjustedScale: req.AdjustedScale,
	}))
}

// RemoveSong removes a setlist entry and renumbers the rest.
func (h *ShowHandler) RemoveSong(ctx context.Context, _ *reqctx.Session, req *dto.RemoveShowSongRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.RemoveFromShow(ctx, req.ShowID, req.ShowSongID))
}
