// Handles the data change history.

package handlers

import (
	"context"

	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/reqctx"
	"github.com/stagehand/stagehand/internal/storage/history"
)

// defaultHistory is the number of commits returned without a limit.
const defaultHistory = 100

// HistoryHandler lists the commits recorded for data changes.
type HistoryHandler struct {
	repo *history.Repo
}

// NewHistoryHandler creates a new history handler. repo may be nil.
func NewHistoryHandler(repo *history.Repo) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// ListHistory returns the newest commits, optionally for one table.
func (h *HistoryHandler) ListHistory(ctx context.Context, _ *reqctx.Session, req *dto.HistoryRequest) (*dto.DataResponse[[]dto.Commit], error) {
	if h.repo == nil {
		return nil, dto.Unavailable("History is only recorded with the jsonl store.")
	}
	n := req.Limit
	if n == 0 {
		n = defaultHistory
	}
	path := ""
	if req.Table != "" {
		path = req.Table + ".jsonl"
	}
	commits, err := h.repo.Log(ctx, path, n)
	if err != nil {
		return nil, dto.StorageError("Failed to load the history.").Wrap(err)
	}
	out := make([]dto.Commit, 0, len(commits))
	for _, c := range commits {
		out = append(out, commitToDTO(c))
	}
	return dto.Data(out), nil
}
