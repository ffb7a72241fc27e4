package lesson

import (
	"context"

	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

// OutlineGenerator asks the backend for a flat chapter outline.
type OutlineGenerator struct {
	chat        *ChatDriver
	model       string
	temperature float64
}

func NewOutlineGenerator(chat *ChatDriver, model string, temperature float64) *OutlineGenerator {
	return &OutlineGenerator{
		chat:        chat,
		model:       model,
		temperature: temperature,
	}
}

// Generate starts outline generation and returns the raw stream; callers
// aggregate it. Backend failures come back as *domain.BackendCallError and
// are never retried here.
func (g *OutlineGenerator) Generate(ctx context.Context, topic string, prefs domain.Preferences) (domain.Stream, error) {
	log := observability.LoggerFromContext(ctx).With("topic", topic, "model", g.model)
	log.Info("generating outline")

	return g.chat.Stream(ctx, ChatInput{
		System:      BuildOutlineInstruction(prefs),
		Prompt:      OutlineRequest(topic),
		Temperature: g.temperature,
		Model:       g.model,
	})
}
