package lesson_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/coollearn/internal/adapters/llm"
	"github.com/PabloGalante/coollearn/internal/app/lesson"
	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func TestBuildMessagesOrder(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "start"},
		{Role: domain.RoleAssistant, Content: "Welcome"},
		{Role: domain.RoleUser, Content: "continue"},
	}

	got := lesson.BuildMessages("sys", "continue", history)
	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: "sys"},
		{Role: domain.ChatRoleUser, Content: "start"},
		{Role: domain.ChatRoleAssistant, Content: "Welcome"},
		{Role: domain.ChatRoleUser, Content: "continue"},
	}, got)
}

func TestBuildMessagesAppendsNewPrompt(t *testing.T) {
	got := lesson.BuildMessages("sys", "Current topic: Go", nil)
	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: "sys"},
		{Role: domain.ChatRoleUser, Content: "Current topic: Go"},
	}, got)

	history := []domain.Message{{Role: domain.RoleAssistant, Content: "continue"}}
	got = lesson.BuildMessages("sys", "continue", history)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ChatRoleUser, got[2].Role)
}

func TestChatDriverStream(t *testing.T) {
	backend := llm.NewScriptedBackend(llm.Script{Parts: []string{"Wel", "come"}})
	driver := lesson.NewChatDriver(backend)

	s, err := driver.Stream(context.Background(), lesson.ChatInput{
		System:      "sys",
		Prompt:      "start",
		History:     []domain.Message{{Role: domain.RoleUser, Content: "start"}},
		Temperature: lesson.ChatTemperature,
		Model:       "GLM-3-Turbo",
	})
	require.NoError(t, err)

	got, err := stream.Aggregate(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GLM-3-Turbo", reqs[0].Model)
	assert.InDelta(t, 0.7, reqs[0].Temperature, 1e-9)
	assert.Len(t, reqs[0].Messages, 2)
}

func TestChatDriverValidatesInput(t *testing.T) {
	backend := llm.NewScriptedBackend()
	driver := lesson.NewChatDriver(backend)

	_, err := driver.Stream(context.Background(), lesson.ChatInput{Temperature: 1.5, Model: "GLM-4"})
	assert.True(t, domain.IsValidation(err))

	_, err = driver.Stream(context.Background(), lesson.ChatInput{Temperature: -0.1, Model: "GLM-4"})
	assert.True(t, domain.IsValidation(err))

	_, err = driver.Stream(context.Background(), lesson.ChatInput{Temperature: 0.5})
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, backend.Requests())
}

func TestOutlineGeneratorRequest(t *testing.T) {
	backend := llm.NewScriptedBackend(llm.Script{Parts: []string{"Intro\n", "Chapter 1"}})
	gen := lesson.NewOutlineGenerator(lesson.NewChatDriver(backend), "GLM-4", lesson.DefaultTemperature)

	s, err := gen.Generate(context.Background(), "Li Bai's poetry", domain.DefaultPreferences())
	require.NoError(t, err)

	got, err := stream.Aggregate(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "Intro\nChapter 1", got)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GLM-4", reqs[0].Model)
	assert.InDelta(t, 0.5, reqs[0].Temperature, 1e-9)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, lesson.BuildOutlineInstruction(domain.DefaultPreferences()), reqs[0].Messages[0].Content)
	assert.Equal(t, "Current topic: Li Bai's poetry", reqs[0].Messages[1].Content)
}

func TestOutlineGeneratorPropagatesBackendError(t *testing.T) {
	auth := errors.New("401 invalid api key")
	gen := lesson.NewOutlineGenerator(
		lesson.NewChatDriver(llm.NewScriptedBackend(llm.Script{Err: auth})),
		"GLM-4", lesson.DefaultTemperature,
	)

	_, err := gen.Generate(context.Background(), "Go", domain.DefaultPreferences())
	assert.True(t, domain.IsBackend(err))
	assert.ErrorIs(t, err, auth)
}
