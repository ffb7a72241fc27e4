package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/PabloGalante/coollearn/internal/app/lesson"
	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

// ScriptedBackend replays canned replies instead of calling a model. Each
// StreamChat call pops the next script; when the scripts run out it falls
// back to a small built-in tutor so the CLI is usable offline.
type ScriptedBackend struct {
	mu       sync.Mutex
	scripts  []Script
	requests []domain.ChatRequest
}

// Script is one scripted reply. Parts are streamed as deltas, "" meaning a
// delta without text. Err, when set, is returned by StreamChat itself;
// StreamErr is yielded after the parts.
type Script struct {
	Parts     []string
	Err       error
	StreamErr error
}

func NewScriptedBackend(scripts ...Script) *ScriptedBackend {
	return &ScriptedBackend{scripts: scripts}
}

// NewMockLLM returns a backend with no scripts, answering with the built-in tutor.
func NewMockLLM() *ScriptedBackend {
	return NewScriptedBackend()
}

// Push queues more scripted replies.
func (m *ScriptedBackend) Push(scripts ...Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, scripts...)
}

// Requests returns every request seen so far.
func (m *ScriptedBackend) Requests() []domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *ScriptedBackend) StreamChat(ctx context.Context, req domain.ChatRequest) (domain.Stream, error) {
	m.mu.Lock()
	msgs := make([]domain.ChatMessage, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	m.requests = append(m.requests, req)

	var script Script
	if len(m.scripts) > 0 {
		script = m.scripts[0]
		m.scripts = m.scripts[1:]
	} else {
		script = Script{Parts: splitWords(fallbackReply(req))}
	}
	m.mu.Unlock()

	if script.Err != nil {
		return nil, &domain.BackendCallError{Op: "mock chat", Err: script.Err}
	}

	parts := stream.FromStrings(script.Parts...)
	return stream.Once(func(yield func(domain.Delta, error) bool) {
		for d, err := range parts {
			if ctx.Err() != nil {
				yield(domain.Delta{}, &domain.BackendCallError{Op: "mock chat", Err: ctx.Err()})
				return
			}
			if !yield(d, err) {
				return
			}
		}
		if script.StreamErr != nil {
			yield(domain.Delta{}, &domain.BackendCallError{Op: "mock chat", Err: script.StreamErr})
		}
	}), nil
}

func fallbackReply(req domain.ChatRequest) string {
	var last string
	for _, msg := range req.Messages {
		if msg.Role == domain.ChatRoleUser {
			last = msg.Content
		}
	}
	if topic, ok := strings.CutPrefix(last, lesson.OutlineRequest("")); ok {
		return "Introduction: what " + topic + " is about.\n" +
			"Chapter 1: Core ideas of " + topic + ".\n" +
			"Chapter 2: Worked examples.\n" +
			"Conclusion: Review and next steps."
	}
	return "I hear you: " + last + ". Say `continue` to go on or `test` to be tested."
}

// splitWords keeps the separators so the joined parts equal s.
func splitWords(s string) []string {
	var parts []string
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i+1])
		s = s[i+1:]
	}
	return parts
}
