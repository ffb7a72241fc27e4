package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

// GeminiConfig selects between Vertex AI (project + location) and the
// Gemini API (API key).
type GeminiConfig struct {
	APIKey    string
	ProjectID string
	Location  string
}

type GeminiBackend struct {
	client *genai.Client
}

// NewGeminiBackend creates a ChatBackend on top of genai. With a project it
// talks to Vertex AI, otherwise to the Gemini API with the key.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.ProjectID != "":
		if cfg.Location == "" {
			return nil, fmt.Errorf("gemini: location is required with a project")
		}
		cc.Project = cfg.ProjectID
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, fmt.Errorf("gemini: either an API key or a GCP project must be set")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiBackend{client: client}, nil
}

// StreamChat implements domain.ChatBackend using GenerateContentStream.
func (g *GeminiBackend) StreamChat(ctx context.Context, req domain.ChatRequest) (domain.Stream, error) {
	system, contents := toGeminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, &domain.BackendCallError{Op: "gemini stream", Err: fmt.Errorf("no user or assistant messages")}
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(8192),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	return stream.Once(func(yield func(domain.Delta, error) bool) {
		for res, err := range g.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
			if err != nil {
				yield(domain.Delta{}, &domain.BackendCallError{Op: "gemini stream", Err: err})
				return
			}
			var d domain.Delta
			if text := res.Text(); text != "" {
				d = domain.TextDelta(text)
			}
			if !yield(d, nil) {
				return
			}
		}
	}), nil
}

// toGeminiContents splits system messages out into the system instruction
// and maps the rest onto user/model turns in order.
func toGeminiContents(msgs []domain.ChatMessage) (string, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range msgs {
		switch m.Role {
		case domain.ChatRoleSystem:
			system = append(system, m.Content)
		case domain.ChatRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
