package domain

import (
	"context"
	"iter"
)

// ChatRole is the role of a message sent to the backend. Unlike Role it
// includes the system instruction.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatRequest is one streaming chat completion call.
type ChatRequest struct {
	Model       string
	Temperature float64
	Messages    []ChatMessage
}

// Delta is one increment of a streamed reply. Text is nil when the backend
// sent a chunk with no text payload (role headers, stop markers, usage).
type Delta struct {
	Text *string
}

// TextDelta returns a delta carrying s.
func TextDelta(s string) Delta {
	return Delta{Text: &s}
}

// Content returns the text fragment and whether one was present.
func (d Delta) Content() (string, bool) {
	if d.Text == nil {
		return "", false
	}
	return *d.Text, true
}

// Stream is a finite, single-pass sequence of deltas. The backend signals
// completion by ending the sequence; a non-nil error ends it early.
type Stream = iter.Seq2[Delta, error]

// ChatBackend is the LLM provider seen by the core.
type ChatBackend interface {
	StreamChat(ctx context.Context, req ChatRequest) (Stream, error)
}

// PlanStore persists whole sessions keyed by topic.
type PlanStore interface {
	// Save writes a full snapshot, replacing any previous record for the
	// topic. Sessions without an outline are not saved.
	Save(ctx context.Context, session *Session) error
	// Load returns *NotFoundError when the topic has no record.
	Load(ctx context.Context, topic string) (*Session, error)
	// ListTopics never fails on an empty store.
	ListTopics(ctx context.Context) ([]string, error)
}
