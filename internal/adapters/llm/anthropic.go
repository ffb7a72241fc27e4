package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

const anthropicMaxTokens = 4096

type AnthropicBackend struct {
	client *anthropic.Client
}

func NewAnthropicBackend(apiKey string) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicBackend{client: &client}, nil
}

// StreamChat implements domain.ChatBackend with Messages.NewStreaming. Events
// other than text deltas are passed on as deltas without text.
func (a *AnthropicBackend) StreamChat(ctx context.Context, req domain.ChatRequest) (domain.Stream, error) {
	system, msgs := toAnthropicMessages(req.Messages)
	if len(msgs) == 0 {
		return nil, &domain.BackendCallError{Op: "anthropic stream", Err: fmt.Errorf("no user or assistant messages")}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return stream.Once(func(yield func(domain.Delta, error) bool) {
		s := a.client.Messages.NewStreaming(ctx, params)
		defer s.Close()

		for s.Next() {
			var d domain.Delta
			if ev, ok := s.Current().AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if td, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
					d = domain.TextDelta(td.Text)
				}
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(domain.Delta{}, &domain.BackendCallError{Op: "anthropic stream", Err: err})
		}
	}), nil
}

func toAnthropicMessages(msgs []domain.ChatMessage) (string, []anthropic.MessageParam) {
	var (
		system []string
		out    []anthropic.MessageParam
	)
	for _, m := range msgs {
		switch m.Role {
		case domain.ChatRoleSystem:
			system = append(system, m.Content)
		case domain.ChatRoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return strings.Join(system, "\n\n"), out
}
