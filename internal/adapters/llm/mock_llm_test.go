package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/coollearn/internal/adapters/llm"
	"github.com/PabloGalante/coollearn/internal/app/lesson"
	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScriptedBackendReplaysScripts(t *testing.T) {
	ctx := context.Background()
	backend := llm.NewScriptedBackend(llm.Script{Parts: []string{"Wel", "come", ""}})

	s, err := backend.StreamChat(ctx, domain.ChatRequest{
		Model:    "GLM-4",
		Messages: []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: "start"}},
	})
	require.NoError(t, err)

	got, err := stream.Aggregate(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GLM-4", reqs[0].Model)
}

func TestScriptedBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := llm.NewScriptedBackend(
		llm.Script{Err: errors.New("invalid api key")},
		llm.Script{Parts: []string{"half"}, StreamErr: errors.New("reset")},
	)

	_, err := backend.StreamChat(ctx, domain.ChatRequest{})
	assert.True(t, domain.IsBackend(err))

	s, err := backend.StreamChat(ctx, domain.ChatRequest{})
	require.NoError(t, err)
	_, err = stream.Aggregate(s, nil)
	assert.True(t, domain.IsBackend(err))
}

func TestScriptedBackendFallback(t *testing.T) {
	backend := llm.NewMockLLM()

	s, err := backend.StreamChat(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatRoleSystem, Content: lesson.BuildOutlineInstruction(domain.DefaultPreferences())},
			{Role: domain.ChatRoleUser, Content: lesson.OutlineRequest("Rust ownership")},
		},
	})
	require.NoError(t, err)

	got, err := stream.Aggregate(s, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "Chapter 1: Core ideas of Rust ownership.")
}
