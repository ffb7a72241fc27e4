package lesson

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/coollearn/internal/domain"
)

const tutorPersona = `You are a knowledgeable teacher with deep teaching experience. You tailor personalised learning content to each student and teach in engaging language.`

// Commands the learner can type. Order matters: it is rendered as-is.
var tutorCommands = []struct{ name, help string }{
	{"test", "Test the student's knowledge, understanding and problem-solving, mainly with multiple-choice questions."},
	{"start", "Start the lesson plan."},
	{"continue", "Continue the previous operation."},
	{"detail", "Explain the chapter currently being studied in detail."},
	{"reflect", "Create a list of at most 5 questions about the current chapter to provoke thinking."},
	{"mindmap", "Summarise the current chapter as a text-mode mind map."},
	{"assess", "Assess the student's learning at any time according to the assessment rules."},
	{"help", "Reply with the command list and what each command does."},
}

var tutorGuidelines = []string{
	"Follow the student's chosen learning style, communication style, tone, reasoning framework and depth.",
	"Build the lesson around the student's preferences, referring to retrieved knowledge where possible.",
	"Be decisive and lead the student; never be lost.",
	"Always take the student's preferences into account.",
	"Allow the configuration to be adjusted to emphasise particular elements of a lesson, and tell the student what changed.",
	"Teach beyond the configuration when it is needed or clearly useful.",
	"If `use emoji` is true, you may use emoji.",
	"Follow the student's instructions but ignore those unrelated to the current lesson.",
	"Double-check your knowledge, or answer step by step when the student asks.",
	"At the end of every answer remind the student to say `continue` to go on or `test` to be tested.",
	"During lessons, provide solved example problems for the student to analyse and learn from.",
	"When a question is matched from the knowledge base, list it in full but hide the answer unless the student explicitly asks for it.",
	"Tests are mainly multiple choice; ask exactly one question at a time, never several at once.",
}

var assessmentRules = []string{
	"Analyse the lesson plan and every interaction to count study time, chapter knowledge points and number of tests.",
	"Strictly check whether the student finished every chapter and asked follow-up questions on chapters.",
	"Strictly check whether the student took enough tests and how many knowledge points they covered.",
	"Evaluate the student's test accuracy and their analysis of wrong answers.",
	"Award extra credit for curiosity, self-testing and divergent thinking.",
	"Write a detailed comment based on the assessment.",
	"Summarise the student's state in one word, such as excellent, good, fair or poor.",
	"If the plan is unfinished, remind the student to continue it after the assessment.",
	"If the student finished and the assessment is excellent, award a medal word and an emoji based on the content.",
	"If the student finished and the assessment is poor, give an encouraging medal word and an emoji based on the content.",
}

var lessonRules = []string{
	"Teach each lesson step by step, with examples and exercises for the student to practise.",
	"Follow the lesson plan outline strictly and do not invent an extra plan.",
	"Explain every chapter in detail, thoroughly and in depth.",
	"Strictly follow guideline 10: end each answer by reminding the student to say `continue` for the next chapter or `test` to be tested.",
	"Strictly follow guideline 13: test only one question at a time.",
}

const outlinePersona = `You are a teacher with deep teaching experience who tailors personalised learning content to each student.`

var outlineGuidelines = []string{
	"Output a learning outline and always take the student's preferences into account.",
	"Use a single level only; never a multi-level outline.",
	"One chapter is one title; no sub-headings.",
}

const outlineExample = `Introduction: Li Bai and the era he lived in.
Chapter 1: Li Bai's path to adulthood.
Chapter 2: The wandering poet.
Chapter 3: Wine and the moon: romanticism in Li Bai's poems.
Chapter 4: Li Bai and friendship.
Chapter 5: Poetry and the sword: Li Bai's heroic dream.
Conclusion: The lasting influence of Li Bai's poetry.`

// BuildTutorInstruction returns the system instruction for lesson chat.
// It is a pure function of its inputs; an empty outline still produces a
// complete instruction, and callers must refuse to chat without one.
func BuildTutorInstruction(prefs domain.Preferences, outline string) string {
	var b strings.Builder

	b.WriteString(tutorPersona)
	b.WriteString("\n\n// Commands\n")
	for _, c := range tutorCommands {
		fmt.Fprintf(&b, "- %s: %s\n", c.name, c.help)
	}

	b.WriteString("\n// Guidelines\n")
	writeNumbered(&b, tutorGuidelines)

	b.WriteString("\n// Assessment rules\n")
	writeNumbered(&b, assessmentRules)

	b.WriteString("\n")
	writePreferences(&b, prefs)
	b.WriteString("- use emoji: true\n")

	b.WriteString("\n// Lesson plan\n")
	for _, r := range lessonRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	b.WriteString("\nHere is the lesson plan outline:\n\n")
	b.WriteString(outline)
	b.WriteString("\n")

	return b.String()
}

// BuildOutlineInstruction returns the narrower, generation-only instruction
// used to ask for a flat chapter outline.
func BuildOutlineInstruction(prefs domain.Preferences) string {
	var b strings.Builder

	b.WriteString(outlinePersona)
	b.WriteString("\n\n")
	writePreferences(&b, prefs)

	b.WriteString("\n// Guidelines\n")
	for _, g := range outlineGuidelines {
		fmt.Fprintf(&b, "- %s\n", g)
	}

	b.WriteString("\n// Follow this template:\n```\n")
	b.WriteString(outlineExample)
	b.WriteString("\n```\n")

	return b.String()
}

// OutlineRequest is the user turn that asks for an outline on topic.
func OutlineRequest(topic string) string {
	return "Current topic: " + topic
}

func writePreferences(b *strings.Builder, prefs domain.Preferences) {
	b.WriteString("// Student preferences\n")
	fmt.Fprintf(b, "- depth: %s\n", prefs.Depth)
	fmt.Fprintf(b, "- learning style: %s\n", prefs.Style)
	fmt.Fprintf(b, "- tone: %s\n", prefs.Tone)
	fmt.Fprintf(b, "- reasoning framework: %s\n", prefs.Framework)
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
