// Package assistant answers free form music and cinema questions with a
// Gemini model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyAnswer is returned when the model produced no text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Answerer answers a question with Markdown text.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

const promptTemplate = `You are a world-renowned expert on music and cinema. Your knowledge spans all genres, eras, and cultures. You can answer questions about:
- Music: Artists, bands, albums, songs, lyrics, music theory, history, and genres.
- Movies: Actors, directors, plots, awards, soundtracks, and film history.
- People: Lyricists, composers, singers, actors, directors.

Please provide a comprehensive and engaging answer to the following question. Format your response using Markdown for readability.

User Question: `

// Prompt returns the full prompt sent for query.
func Prompt(query string) string {
	return promptTemplate + strings.TrimSpace(query)
}

// Gemini is an Answerer backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Gemini answerer. apiKey is required.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the model name.
func (g *Gemini) Model() string {
	return g.model
}

// Answer sends the question and returns the model's Markdown answer.
func (g *Gemini) Answer(ctx context.Context, query string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(query)), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
