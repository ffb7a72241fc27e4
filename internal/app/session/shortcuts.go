package session

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	ShortcutStart    = "start"
	ShortcutContinue = "continue"
	ShortcutQuiz     = "quiz"
	ShortcutDetail   = "detail"
	ShortcutReflect  = "reflect"
	ShortcutMindmap  = "mindmap"
	ShortcutAssess   = "assess"
)

// Shortcut is a one-click command. Label is the text sent as the user turn
// and matches the command vocabulary of the tutor instruction.
type Shortcut struct {
	Name  string
	Label string
}

// Shortcuts in display order.
var Shortcuts = []Shortcut{
	{Name: ShortcutStart, Label: "start"},
	{Name: ShortcutContinue, Label: "continue"},
	{Name: ShortcutQuiz, Label: "test"},
	{Name: ShortcutDetail, Label: "detail"},
	{Name: ShortcutReflect, Label: "reflect"},
	{Name: ShortcutMindmap, Label: "mindmap"},
	{Name: ShortcutAssess, Label: "assess"},
}

// LookupShortcut finds a shortcut by name, case-insensitively.
func LookupShortcut(name string) (Shortcut, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	return lo.Find(Shortcuts, func(sc Shortcut) bool { return sc.Name == name })
}

// ShortcutNames lists the names in display order.
func ShortcutNames() []string {
	return lo.Map(Shortcuts, func(sc Shortcut, _ int) string { return sc.Name })
}

// AssessMarker is the user turn that precedes "assess".
func AssessMarker(t time.Time) string {
	return "Assessment cutoff time: " + t.Format(TimestampLayout)
}
