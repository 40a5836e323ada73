package handlers

import (
	"context"
	"log/slog"

	"github.com/stagehand/stagehand/internal/assistant"
	"github.com/stagehand/stagehand/internal/server/dto"
)

const msgAssistantFailed = "Sorry, I couldn't fetch an answer. Please try again."

// AssistantHandler answers music and cinema questions.
type AssistantHandler struct {
	answerer assistant.Answerer
}

// NewAssistantHandler creates a new assistant handler. a may be nil, in which
// case every question is answered with 503.
func NewAssistantHandler(a assistant.Answerer) *AssistantHandler {
	return &AssistantHandler{answerer: a}
}

// Ask forwards the question to the model.
func (h *AssistantHandler) Ask(ctx context.Context, req *dto.AssistantRequest) (*dto.DataResponse[dto.AssistantResponse], error) {
	if h.answerer == nil {
		return nil, dto.Unavailable(msgAssistantFailed).WithDetail("reason", "not_configured")
	}
	answer, err := h.answerer.Answer(ctx, req.Query)
	if err != nil {
		slog.ErrorContext(ctx, "Assistant failed", "err", err)
		return nil, dto.Upstream(msgAssistantFailed).Wrap(err)
	}
	return dto.Data(dto.AssistantResponse{Answer: answer}), nil
}
