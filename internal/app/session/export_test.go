package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func TestTranscript(t *testing.T) {
	got := session.Transcript("Li Bai's poetry", []domain.Message{
		{Role: domain.RoleUser, Content: "start"},
		{Role: domain.RoleAssistant, Content: "Welcome"},
	})
	want := "# Li Bai's poetry\n\n**user**: start\n\n**assistant**: Welcome\n\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "# Go\n\n", session.Transcript("Go", nil))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "Go-plan.txt", session.OutlineFileName("Go"))
	assert.Equal(t, "Go-transcript.md", session.TranscriptFileName("Go"))
}

func TestLookupShortcut(t *testing.T) {
	sc, ok := session.LookupShortcut(" Quiz ")
	assert.True(t, ok)
	assert.Equal(t, "test", sc.Label)

	_, ok = session.LookupShortcut("help")
	assert.False(t, ok)

	assert.Equal(t, []string{"start", "continue", "quiz", "detail", "reflect", "mindmap", "assess"}, session.ShortcutNames())
}

func TestAssessMarker(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "Assessment cutoff time: 2024-03-01 14:05:09", session.AssessMarker(ts))
}
