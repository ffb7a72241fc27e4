package firestore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/coollearn/internal/domain"
)

const (
	plansCollection = "plans"
	// DocSuffix is appended to the topic to form the document id.
	DocSuffix = "_plan_data"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store in projectID.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) plansCol() *firestore.CollectionRef {
	return s.client.Collection(plansCollection)
}

func (s *Store) planDoc(topic string) *firestore.DocumentRef {
	return s.plansCol().Doc(DocID(topic))
}

// DocID maps a topic to its document id.
func DocID(topic string) string {
	return topic + DocSuffix
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type planDoc struct {
	Topic       string       `firestore:"topic"`
	Depth       string       `firestore:"depth"`
	Style       string       `firestore:"style"`
	Tone        string       `firestore:"tone"`
	Framework   string       `firestore:"framework"`
	PlanOutline string       `firestore:"plan_outline"`
	Messages    []messageDoc `firestore:"messages"`
}

type messageDoc struct {
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

func toPlanDoc(session *domain.Session) planDoc {
	doc := planDoc{
		Topic:       session.Topic,
		Depth:       string(session.Preferences.Depth),
		Style:       string(session.Preferences.Style),
		Tone:        string(session.Preferences.Tone),
		Framework:   string(session.Preferences.Framework),
		PlanOutline: session.Outline,
		Messages:    make([]messageDoc, 0, len(session.Messages)),
	}
	for _, m := range session.Messages {
		doc.Messages = append(doc.Messages, messageDoc{Role: string(m.Role), Content: m.Content})
	}
	return doc
}

func fromPlanDoc(doc planDoc) (*domain.Session, error) {
	prefs, err := domain.NewPreferences(doc.Depth, doc.Style, doc.Tone, doc.Framework)
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		Topic:       doc.Topic,
		Preferences: prefs,
		Outline:     doc.PlanOutline,
		Messages:    make([]domain.Message, 0, len(doc.Messages)),
	}
	for i, m := range doc.Messages {
		role := domain.Role(m.Role)
		if role != domain.RoleUser && role != domain.RoleAssistant {
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
		session.Messages = append(session.Messages, domain.Message{Role: role, Content: m.Content})
	}
	return session, nil
}

// ─────────────────────────────────────────
// PlanStore implementation
// ─────────────────────────────────────────

// Save replaces the whole document; Set without merge options never merges
// with what was there before.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Outline == "" {
		return nil
	}
	if err := domain.ValidateTopic(session.Topic); err != nil {
		return err
	}

	if _, err := s.planDoc(session.Topic).Set(ctx, toPlanDoc(session)); err != nil {
		return fmt.Errorf("firestore Save: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, topic string) (*domain.Session, error) {
	if err := domain.ValidateTopic(topic); err != nil {
		return nil, err
	}

	snap, err := s.planDoc(topic).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &domain.NotFoundError{Topic: topic}
		}
		return nil, fmt.Errorf("firestore Load: %w", err)
	}

	var doc planDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, &domain.SerializationError{Topic: topic, Err: err}
	}
	session, err := fromPlanDoc(doc)
	if err != nil {
		return nil, &domain.SerializationError{Topic: topic, Err: err}
	}
	return session, nil
}

// ListTopics derives topics from document ids, not document contents.
func (s *Store) ListTopics(ctx context.Context) ([]string, error) {
	iter := s.plansCol().DocumentRefs(ctx)

	topics := []string{}
	for {
		ref, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListTopics: %w", err)
		}
		if topic, ok := strings.CutSuffix(ref.ID, DocSuffix); ok && domain.ValidateTopic(topic) == nil {
			topics = append(topics, topic)
		}
	}
	slices.Sort(topics)
	return topics, nil
}
