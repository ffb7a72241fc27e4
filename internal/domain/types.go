package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Depth is how deep the lesson goes, named after the learner's school level.
type Depth string

const (
	DepthPrimarySchool Depth = "primary-school"
	DepthMiddleSchool  Depth = "middle-school"
	DepthHighSchool    Depth = "high-school"
	DepthUndergraduate Depth = "undergraduate"
	DepthGraduate      Depth = "graduate"
)

// Style is the teaching style.
type Style string

const (
	StyleTextbook     Style = "textbook"
	StyleDocumentary  Style = "documentary"
	StyleFeynman      Style = "feynman"
	StyleSocratic     Style = "socratic"
	StyleStorytelling Style = "storytelling"
)

// Tone is the voice the tutor talks in.
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneNeutral     Tone = "neutral"
	ToneInformative Tone = "informative"
	ToneFriendly    Tone = "friendly"
	ToneHumorous    Tone = "humorous"
)

// Framework is the reasoning framework used to explain things.
type Framework string

const (
	FrameworkDeductive  Framework = "deductive"
	FrameworkInductive  Framework = "inductive"
	FrameworkAnalogical Framework = "analogical"
	FrameworkCausal     Framework = "causal"
)

var (
	Depths     = []Depth{DepthPrimarySchool, DepthMiddleSchool, DepthHighSchool, DepthUndergraduate, DepthGraduate}
	Styles     = []Style{StyleTextbook, StyleDocumentary, StyleFeynman, StyleSocratic, StyleStorytelling}
	Tones      = []Tone{ToneEncouraging, ToneNeutral, ToneInformative, ToneFriendly, ToneHumorous}
	Frameworks = []Framework{FrameworkDeductive, FrameworkInductive, FrameworkAnalogical, FrameworkCausal}
)

// Preferences are the learner's choices that shape both the outline and the lesson.
// Build them with NewPreferences so every field holds a known value.
type Preferences struct {
	Depth     Depth
	Style     Style
	Tone      Tone
	Framework Framework
}

// DefaultPreferences mirrors what a first-time learner sees preselected.
func DefaultPreferences() Preferences {
	return Preferences{
		Depth:     DepthMiddleSchool,
		Style:     StyleTextbook,
		Tone:      ToneFriendly,
		Framework: FrameworkDeductive,
	}
}

// NewPreferences validates the four raw values and returns the typed record.
func NewPreferences(depth, style, tone, framework string) (Preferences, error) {
	d, err := ParseDepth(depth)
	if err != nil {
		return Preferences{}, err
	}
	s, err := ParseStyle(style)
	if err != nil {
		return Preferences{}, err
	}
	t, err := ParseTone(tone)
	if err != nil {
		return Preferences{}, err
	}
	f, err := ParseFramework(framework)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{Depth: d, Style: s, Tone: t, Framework: f}, nil
}

// Validate reports the first field holding a value outside its category.
func (p Preferences) Validate() error {
	_, err := NewPreferences(string(p.Depth), string(p.Style), string(p.Tone), string(p.Framework))
	return err
}

func ParseDepth(s string) (Depth, error) {
	return parseEnum("depth", s, Depths)
}

func ParseStyle(s string) (Style, error) {
	return parseEnum("style", s, Styles)
}

func ParseTone(s string) (Tone, error) {
	return parseEnum("tone", s, Tones)
}

func ParseFramework(s string) (Framework, error) {
	return parseEnum("framework", s, Frameworks)
}

func parseEnum[T ~string](field, raw string, allowed []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	if !lo.Contains(allowed, v) {
		names := lo.Map(allowed, func(a T, _ int) string { return string(a) })
		return "", &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%q is not one of %s", raw, strings.Join(names, ", ")),
		}
	}
	return v, nil
}

type Message struct {
	Role    Role
	Content string
}

// State is derived from the session contents, never stored.
type State string

const (
	StateNoPlan     State = "no_plan"
	StatePlanReady  State = "plan_ready"
	StateConversing State = "conversing"
)
