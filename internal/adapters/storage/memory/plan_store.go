package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/PabloGalante/coollearn/internal/domain"
)

// PlanStore is an in-memory domain.PlanStore. It is NOT persistent and is
// only suitable for tests and throwaway sessions.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]*domain.Session

	// FailSaves makes every Save return an error, for exercising
	// persistence failures.
	FailSaves bool
	saves     int
}

func NewPlanStore() *PlanStore {
	return &PlanStore{
		plans: make(map[string]*domain.Session),
	}
}

var errSaveFailed = errors.New("memory store: save failed")

func (s *PlanStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.Outline == "" {
		return nil
	}
	if err := domain.ValidateTopic(session.Topic); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSaves {
		return errSaveFailed
	}
	s.plans[session.Topic] = session.Clone()
	s.saves++
	return nil
}

func (s *PlanStore) Load(_ context.Context, topic string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.plans[topic]
	if !ok {
		return nil, &domain.NotFoundError{Topic: topic}
	}
	return sess.Clone(), nil
}

func (s *PlanStore) ListTopics(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, 0, len(s.plans))
	for topic := range s.plans {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics, nil
}

// Saves counts successful writes.
func (s *PlanStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
