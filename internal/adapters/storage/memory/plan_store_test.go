package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/coollearn/internal/adapters/storage/memory"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func TestPlanStoreIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlanStore()

	s := &domain.Session{
		Topic:       "Go",
		Preferences: domain.DefaultPreferences(),
		Outline:     "Ch1",
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: "start"}},
	}
	require.NoError(t, store.Save(ctx, s))

	s.Messages[0].Content = "mutated after save"

	out, err := store.Load(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, "start", out.Messages[0].Content)

	out.Messages = append(out.Messages, domain.Message{Role: domain.RoleAssistant})
	again, err := store.Load(ctx, "Go")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 1)
}

func TestPlanStoreSemantics(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPlanStore()

	topics, err := store.ListTopics(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)

	require.NoError(t, store.Save(ctx, &domain.Session{Topic: "no outline"}))
	assert.Equal(t, 0, store.Saves())

	_, err = store.Load(ctx, "no outline")
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Save(ctx, &domain.Session{Topic: "b", Outline: "x"}))
	require.NoError(t, store.Save(ctx, &domain.Session{Topic: "a", Outline: "x"}))
	topics, err = store.ListTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, topics)

	store.FailSaves = true
	assert.Error(t, store.Save(ctx, &domain.Session{Topic: "c", Outline: "x"}))
}
