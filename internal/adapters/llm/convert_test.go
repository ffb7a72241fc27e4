package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"

	"github.com/PabloGalante/coollearn/internal/domain"
)

var conversation = []domain.ChatMessage{
	{Role: domain.ChatRoleSystem, Content: "be a tutor"},
	{Role: domain.ChatRoleUser, Content: "start"},
	{Role: domain.ChatRoleAssistant, Content: "Welcome"},
	{Role: domain.ChatRoleUser, Content: "continue"},
}

func TestToLangchainMessagesKeepsOrder(t *testing.T) {
	got := toLangchainMessages(conversation)
	require.Len(t, got, 4)

	wantRoles := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	for i, m := range got {
		assert.Equal(t, wantRoles[i], m.Role)
		require.Len(t, m.Parts, 1)
		assert.Equal(t, llms.TextContent{Text: conversation[i].Content}, m.Parts[0])
	}
}

func TestToGeminiContentsSplitsSystem(t *testing.T) {
	system, contents := toGeminiContents(conversation)
	assert.Equal(t, "be a tutor", system)
	require.Len(t, contents, 3)

	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleModel, contents[1].Role)
	assert.EqualValues(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, "Welcome", contents[1].Parts[0].Text)
}

func TestToAnthropicMessagesSplitsSystem(t *testing.T) {
	system, msgs := toAnthropicMessages(conversation)
	assert.Equal(t, "be a tutor", system)
	require.Len(t, msgs, 3)

	assert.EqualValues(t, "user", msgs[0].Role)
	assert.EqualValues(t, "assistant", msgs[1].Role)
	assert.EqualValues(t, "user", msgs[2].Role)
}

func TestSplitWordsRejoins(t *testing.T) {
	in := "I hear you: start. Say continue"
	parts := splitWords(in)
	joined := ""
	for _, p := range parts {
		joined += p
	}
	assert.Equal(t, in, joined)
	assert.Greater(t, len(parts), 1)
}
