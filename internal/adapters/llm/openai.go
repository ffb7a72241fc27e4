package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

// DefaultOpenAIBaseURL is ZhipuAI's OpenAI-compatible endpoint, where the
// GLM models live.
const DefaultOpenAIBaseURL = "https://open.bigmodel.cn/api/paas/v4"

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	llm *openai.LLM
}

func NewOpenAIBackend(apiKey, baseURL, defaultModel string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
	}
	if defaultModel != "" {
		opts = append(opts, openai.WithModel(defaultModel))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAIBackend{llm: client}, nil
}

// StreamChat implements domain.ChatBackend. langchaingo pushes chunks through
// a callback; the callback yields straight into the consumer. When the
// consumer stops early the request context is cancelled and the callback
// keeps returning nil, so langchaingo's body reader sees the aborted body,
// closes its channel and exits.
func (o *OpenAIBackend) StreamChat(ctx context.Context, req domain.ChatRequest) (domain.Stream, error) {
	content := toLangchainMessages(req.Messages)

	return stream.Once(func(yield func(domain.Delta, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		_, err := o.llm.GenerateContent(ctx, content,
			llms.WithModel(req.Model),
			llms.WithTemperature(req.Temperature),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if stopped {
					return nil
				}
				var d domain.Delta
				if len(chunk) > 0 {
					d = domain.TextDelta(string(chunk))
				}
				if !yield(d, nil) {
					stopped = true
					cancel()
				}
				return nil
			}),
		)
		if stopped {
			return
		}
		if err != nil {
			yield(domain.Delta{}, &domain.BackendCallError{Op: "openai stream", Err: err})
		}
	}), nil
}

func toLangchainMessages(msgs []domain.ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		var role llms.ChatMessageType
		switch m.Role {
		case domain.ChatRoleSystem:
			role = llms.ChatMessageTypeSystem
		case domain.ChatRoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
