package session

import (
	"strings"

	"github.com/PabloGalante/coollearn/internal/domain"
)

// WelcomeMessage is shown while a plan has no transcript yet. It is never
// stored as part of the session.
const WelcomeMessage = "Welcome to CoolLearn! Once your lesson plan is ready, say `start` to begin. " +
	"The shortcuts move the lesson along, but you can ask anything at any time."

// Transcript renders messages as Markdown titled with topic.
func Transcript(topic string, messages []domain.Message) string {
	var b strings.Builder
	b.WriteString("# " + topic + "\n\n")
	for _, m := range messages {
		b.WriteString("**" + string(m.Role) + "**: " + m.Content + "\n\n")
	}
	return b.String()
}

func OutlineFileName(topic string) string {
	return topic + "-plan.txt"
}

func TranscriptFileName(topic string) string {
	return topic + "-transcript.md"
}
