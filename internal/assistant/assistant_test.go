package assistant

import (
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	got := Prompt("  Who composed Lag Jaa Gale?\n")
	if !strings.HasSuffix(got, "User Question: Who composed Lag Jaa Gale?") {
		t.Errorf("prompt does not end with the question: %q", got[len(got)-60:])
	}
	if !strings.Contains(got, "Markdown") {
		t.Error("prompt must ask for Markdown")
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(t.Context(), "", ""); err == nil {
		t.Fatal("expected error without API key")
	}
}
