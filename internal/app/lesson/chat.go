// Package lesson turns tutoring intents into backend chat calls.
package lesson

import (
	"context"
	"fmt"

	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

const (
	// DefaultTemperature is used for general generation such as outlines.
	DefaultTemperature = 0.5
	// ChatTemperature is used for in-lesson replies.
	ChatTemperature = 0.7

	MinTemperature = 0.0
	MaxTemperature = 1.0

	DefaultChatModel    = "GLM-3-Turbo"
	DefaultOutlineModel = "GLM-4"
)

// DefaultModels are the model variants offered when none are configured.
var DefaultModels = []string{DefaultChatModel, DefaultOutlineModel}

// ChatInput is everything one chat call needs. History is sent exactly in
// the order given.
type ChatInput struct {
	System      string
	Prompt      string
	History     []domain.Message
	Temperature float64
	Model       string
}

type ChatDriver struct {
	backend domain.ChatBackend
}

func NewChatDriver(backend domain.ChatBackend) *ChatDriver {
	return &ChatDriver{backend: backend}
}

// Stream issues one streaming chat completion. The message list is the
// system instruction followed by History; Prompt is appended as a user turn
// unless it is already the newest history entry.
func (d *ChatDriver) Stream(ctx context.Context, in ChatInput) (domain.Stream, error) {
	if err := validateTemperature(in.Temperature); err != nil {
		return nil, err
	}
	if in.Model == "" {
		return nil, &domain.ValidationError{Field: "model", Reason: "must not be empty"}
	}

	req := domain.ChatRequest{
		Model:       in.Model,
		Temperature: in.Temperature,
		Messages:    BuildMessages(in.System, in.Prompt, in.History),
	}

	log := observability.LoggerFromContext(ctx).With(
		"model", req.Model,
		"temperature", req.Temperature,
		"messages", len(req.Messages),
	)
	log.Debug("streaming chat")

	s, err := d.backend.StreamChat(ctx, req)
	if err != nil {
		log.Error("backend rejected chat", "error", err)
		if domain.IsBackend(err) {
			return nil, err
		}
		return nil, &domain.BackendCallError{Op: "chat", Err: err}
	}
	return s, nil
}

// BuildMessages lays out system, history and prompt for the backend.
func BuildMessages(system, prompt string, history []domain.Message) []domain.ChatMessage {
	msgs := make([]domain.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: system})

	for _, m := range history {
		role := domain.ChatRoleUser
		if m.Role == domain.RoleAssistant {
			role = domain.ChatRoleAssistant
		}
		msgs = append(msgs, domain.ChatMessage{Role: role, Content: m.Content})
	}

	if prompt == "" {
		return msgs
	}
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser && history[n-1].Content == prompt {
		return msgs
	}
	return append(msgs, domain.ChatMessage{Role: domain.ChatRoleUser, Content: prompt})
}

func validateTemperature(t float64) error {
	if t < MinTemperature || t > MaxTemperature {
		return &domain.ValidationError{
			Field:  "temperature",
			Reason: fmt.Sprintf("%.2f is outside [%.1f, %.1f]", t, MinTemperature, MaxTemperature),
		}
	}
	return nil
}
