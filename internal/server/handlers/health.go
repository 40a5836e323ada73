package handlers

import (
	"context"

	"github.com/stagehand/stagehand/internal/server/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version   string
	store     string
	assistant bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version, store string, assistant bool) *HealthHandler {
	return &HealthHandler{version: version, store: store, assistant: assistant}
}

// Health handles health check requests.
func (h *HealthHandler) Health(ctx context.Context, _ *dto.EmptyRequest) (*dto.DataResponse[dto.HealthResponse], error) {
	return dto.Data(dto.HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Store:     h.store,
		Assistant: h.assistant,
	}), nil
}
