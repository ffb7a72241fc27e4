package firestore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/coollearn/internal/domain"
)

func TestPlanDocRoundTrip(t *testing.T) {
	in := &domain.Session{
		Topic:       "Li Bai's poetry",
		Preferences: domain.DefaultPreferences(),
		Outline:     "Intro\nCh1",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "start"},
			{Role: domain.RoleAssistant, Content: "Welcome"},
		},
	}

	out, err := fromPlanDoc(toPlanDoc(in))
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromPlanDocNilMessages(t *testing.T) {
	out, err := fromPlanDoc(planDoc{
		Topic: "Go", Depth: "graduate", Style: "socratic", Tone: "neutral", Framework: "inductive",
		PlanOutline: "Ch1",
	})
	require.NoError(t, err)
	assert.NotNil(t, out.Messages)
	assert.Empty(t, out.Messages)
}

func TestFromPlanDocRejectsBadValues(t *testing.T) {
	_, err := fromPlanDoc(planDoc{Topic: "Go", Depth: "phd", Style: "socratic", Tone: "neutral", Framework: "inductive"})
	assert.Error(t, err)

	_, err = fromPlanDoc(planDoc{
		Topic: "Go", Depth: "graduate", Style: "socratic", Tone: "neutral", Framework: "inductive",
		Messages: []messageDoc{{Role: "tool", Content: "x"}},
	})
	assert.Error(t, err)
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "Go generics_plan_data", DocID("Go generics"))
}
