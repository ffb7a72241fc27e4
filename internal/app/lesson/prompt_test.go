package lesson_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/coollearn/internal/app/lesson"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func testPrefs() domain.Preferences {
	return domain.Preferences{
		Depth:     domain.DepthMiddleSchool,
		Style:     domain.StyleStorytelling,
		Tone:      domain.ToneHumorous,
		Framework: domain.FrameworkAnalogical,
	}
}

func TestBuildTutorInstructionIsDeterministic(t *testing.T) {
	outline := "Intro: ...\nCh1: ..."
	a := lesson.BuildTutorInstruction(testPrefs(), outline)
	b := lesson.BuildTutorInstruction(testPrefs(), outline)
	assert.Equal(t, a, b)
}

func TestBuildTutorInstructionEmbedsInputs(t *testing.T) {
	outline := "Introduction: Li Bai\nChapter 1: The wandering poet\n\n2026-10-17 09:30:00"
	got := lesson.BuildTutorInstruction(testPrefs(), outline)

	for _, want := range []string{
		"- depth: middle-school",
		"- learning style: storytelling",
		"- tone: humorous",
		"- reasoning framework: analogical",
		"- use emoji: true",
		outline,
	} {
		assert.Contains(t, got, want)
	}

	// command vocabulary in its fixed order
	last := -1
	for _, cmd := range []string{"- test:", "- start:", "- continue:", "- detail:", "- reflect:", "- mindmap:", "- assess:", "- help:"} {
		i := strings.Index(got, cmd)
		require.GreaterOrEqual(t, i, 0, cmd)
		assert.Greater(t, i, last, cmd)
		last = i
	}

	guidelines := strings.Index(got, "// Guidelines")
	rules := strings.Index(got, "// Assessment rules")
	prefs := strings.Index(got, "// Student preferences")
	plan := strings.Index(got, outline)
	assert.True(t, guidelines < rules && rules < prefs && prefs < plan, "sections out of order")
}

func TestBuildTutorInstructionEmptyOutline(t *testing.T) {
	got := lesson.BuildTutorInstruction(testPrefs(), "")
	assert.Contains(t, got, "Here is the lesson plan outline:")
	assert.True(t, strings.HasSuffix(got, "\n"))
}

func TestBuildOutlineInstruction(t *testing.T) {
	got := lesson.BuildOutlineInstruction(testPrefs())
	assert.Contains(t, got, "- depth: middle-school")
	assert.Contains(t, got, "single level")
	assert.Contains(t, got, "Chapter 1: Li Bai's path to adulthood.")
	assert.NotContains(t, got, "// Commands")
	assert.Equal(t, "Current topic: Go generics", lesson.OutlineRequest("Go generics"))
}
