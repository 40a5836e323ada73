package handlers

import (
	"context"

	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/reqctx"
)

// SongHandler handles the song library.
type SongHandler struct {
	svc *catalog.Service
}

// NewSongHandler creates a new song handler.
func NewSongHandler(svc *catalog.Service) *SongHandler {
	return &SongHandler{svc: svc}
}

// ListSongs returns one page of the library.
func (h *SongHandler) ListSongs(ctx context.Context, req *dto.ListSongsRequest) (*dto.DataResponse[*dto.Table[dto.Song]], error) {
	songs, err := h.svc.ListSongs(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	t, err := table(songs, songOptions(), &req.ListParams, songToDTO)
	if err != nil {
		return nil, err
	}
	return dto.Data(t), nil
}

// GetSong returns one song.
func (h *SongHandler) GetSong(ctx context.Context, req *dto.IDRequest) (*dto.DataResponse[dto.Song], error) {
	s, err := h.svc.GetSong(ctx, req.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return dto.Data(songToDTO(s)), nil
}

// CreateSong adds a song to the library.
func (h *SongHandler) CreateSong(ctx context.Context, _ *reqctx.Session, req *dto.SongRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.AddSong(ctx, songInput(req)))
}

// UpdateSong replaces the fields of a song.
func (h *SongHandler) UpdateSong(ctx context.Context, _ *reqctx.Session, req *dto.SongRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.EditSong(ctx, req.ID, songInput(req)))
}

// DeleteSong removes a song. Setlist entries referencing it are kept.
func (h *SongHandler) DeleteSong(ctx context.Context, _ *reqctx.Session, req *dto.IDRequest) (*dto.DataResponse[string], error) {
	return outcome(h.svc.DeleteSong(ctx, req.ID))
}

func outcome(o *catalog.Outcome, err error) (*dto.DataResponse[string], error) {
	if err != nil {
		return nil, apiError(err)
	}
	id := ""
	if !o.ID.IsZero() {
		id = o.ID.String()
	}
	return dto.Message(o.Message, id), nil
}
