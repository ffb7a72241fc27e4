// Package file stores one JSON record per topic in a directory.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

// RecordSuffix is appended to the topic to form a record's file name.
const RecordSuffix = "_plan_data.json"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a domain.PlanStore over a directory of JSON files. It does no
// locking: one session per process is assumed, and concurrent writers to
// the same topic race with last-write-wins.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// ─────────────────────────────────────────
// Record format
// ─────────────────────────────────────────

type record struct {
	Topic       string          `json:"topic"`
	Depth       string          `json:"depth"`
	Style       string          `json:"style"`
	Tone        string          `json:"tone"`
	Framework   string          `json:"framework"`
	PlanOutline string          `json:"plan_outline"`
	Messages    []recordMessage `json:"messages"`
}

type recordMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// storedRecord is the decode side: pointers tell a missing key apart from
// an empty value.
type storedRecord struct {
	Topic       *string         `json:"topic"`
	Depth       *string         `json:"depth"`
	Style       *string         `json:"style"`
	Tone        *string         `json:"tone"`
	Framework   *string         `json:"framework"`
	PlanOutline *string         `json:"plan_outline"`
	Messages    []recordMessage `json:"messages"`
}

// RecordPath returns where topic's record lives.
func (s *Store) RecordPath(topic string) (string, error) {
	if err := domain.ValidateTopic(topic); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, topic+RecordSuffix), nil
}

// ─────────────────────────────────────────
// PlanStore implementation
// ─────────────────────────────────────────

func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Outline == "" {
		return nil
	}
	path, err := s.RecordPath(session.Topic)
	if err != nil {
		return err
	}

	data, err := Encode(session)
	if err != nil {
		return fmt.Errorf("file Save %q: %w", session.Topic, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("file Save %q: %w", session.Topic, err)
	}

	observability.LoggerFromContext(ctx).Debug("plan saved", "topic", session.Topic, "path", path, "messages", len(session.Messages))
	return nil
}

func (s *Store) Load(ctx context.Context, topic string) (*domain.Session, error) {
	path, err := s.RecordPath(topic)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.NotFoundError{Topic: topic}
		}
		return nil, fmt.Errorf("file Load %q: %w", topic, err)
	}

	session, err := Decode(data)
	if err != nil {
		return nil, &domain.SerializationError{Topic: topic, Err: err}
	}

	observability.LoggerFromContext(ctx).Debug("plan loaded", "topic", topic, "messages", len(session.Messages))
	return session, nil
}

func (s *Store) ListTopics(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("file ListTopics: %w", err)
	}

	topics := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if !e.Type().IsRegular() {
			return "", false
		}
		topic, ok := strings.CutSuffix(e.Name(), RecordSuffix)
		return topic, ok && domain.ValidateTopic(topic) == nil
	})
	slices.Sort(topics)
	return topics, nil
}

// ─────────────────────────────────────────
// Encoding helpers
// ─────────────────────────────────────────

// Encode renders a session as an indented UTF-8 record; non-ASCII text is
// written as-is, not \u-escaped.
func Encode(session *domain.Session) ([]byte, error) {
	rec := record{
		Topic:       session.Topic,
		Depth:       string(session.Preferences.Depth),
		Style:       string(session.Preferences.Style),
		Tone:        string(session.Preferences.Tone),
		Framework:   string(session.Preferences.Framework),
		PlanOutline: session.Outline,
		Messages:    make([]recordMessage, 0, len(session.Messages)),
	}
	for _, m := range session.Messages {
		rec.Messages = append(rec.Messages, recordMessage{Role: string(m.Role), Content: m.Content})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a record. A missing messages key yields an empty transcript;
// any other missing key, unknown preference or unknown role is an error.
func Decode(data []byte) (*domain.Session, error) {
	var rec storedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	required := []struct {
		key string
		val *string
	}{
		{"topic", rec.Topic},
		{"depth", rec.Depth},
		{"style", rec.Style},
		{"tone", rec.Tone},
		{"framework", rec.Framework},
		{"plan_outline", rec.PlanOutline},
	}
	for _, r := range required {
		if r.val == nil {
			return nil, fmt.Errorf("missing key %q", r.key)
		}
	}

	prefs, err := domain.NewPreferences(*rec.Depth, *rec.Style, *rec.Tone, *rec.Framework)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		Topic:       *rec.Topic,
		Preferences: prefs,
		Outline:     *rec.PlanOutline,
		Messages:    make([]domain.Message, 0, len(rec.Messages)),
	}
	for i, m := range rec.Messages {
		role := domain.Role(m.Role)
		if role != domain.RoleUser && role != domain.RoleAssistant {
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
		session.Messages = append(session.Messages, domain.Message{Role: role, Content: m.Content})
	}
	return session, nil
}

// writeAtomic writes through a temp file and rename so a crash never leaves
// a half-written record behind.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}
	return nil
}
