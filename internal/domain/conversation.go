package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTopicBytes keeps record identifiers well under common filename and
// document-id limits once the record suffix is appended.
const MaxTopicBytes = 200

// Session is everything one learner has for one topic: the preferences the
// plan was made with, the outline and the whole transcript.
type Session struct {
	Topic       string
	Preferences Preferences
	Outline     string
	Messages    []Message
}

// NewSession returns the empty NoPlan session with default preferences.
func NewSession() *Session {
	return &Session{
		Preferences: DefaultPreferences(),
		Messages:    []Message{},
	}
}

func (s *Session) State() State {
	switch {
	case s.Outline == "":
		return StateNoPlan
	case len(s.Messages) == 0:
		return StatePlanReady
	default:
		return StateConversing
	}
}

// LastMessage returns the newest message, if any.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a deep copy, so callers can hand out snapshots without
// sharing the message backing array.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// ValidateTopic checks a topic can be used as a record key. Topics end up
// inside file names and document ids, so separators, control characters and
// dot-only names are rejected rather than escaped.
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if topic != strings.TrimSpace(topic) {
		return &ValidationError{Field: "topic", Reason: "must not start or end with whitespace"}
	}
	if len(topic) > MaxTopicBytes {
		return &ValidationError{Field: "topic", Reason: "is too long"}
	}
	if !utf8.ValidString(topic) {
		return &ValidationError{Field: "topic", Reason: "must be valid UTF-8"}
	}
	if topic == "." || topic == ".." || strings.HasPrefix(topic, ".") {
		return &ValidationError{Field: "topic", Reason: "must not start with a dot"}
	}
	if strings.HasPrefix(topic, "__") && strings.HasSuffix(topic, "__") {
		return &ValidationError{Field: "topic", Reason: "must not be wrapped in double underscores"}
	}
	for _, r := range topic {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return &ValidationError{Field: "topic", Reason: "must not contain path separators or control characters"}
		}
	}
	return nil
}
