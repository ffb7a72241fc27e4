package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/coollearn/internal/adapters/http"
	"github.com/PabloGalante/coollearn/internal/adapters/llm"
	"github.com/PabloGalante/coollearn/internal/adapters/storage/memory"
	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/observability"
)

type sessionBody struct {
	Topic       string            `json:"topic"`
	State       string            `json:"state"`
	Preferences map[string]string `json:"preferences"`
	Outline     string            `json:"outline"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Welcome   string   `json:"welcome"`
	Model     string   `json:"model"`
	Shortcuts []string `json:"shortcuts"`
}

func newTestServer(t *testing.T, scripts ...llm.Script) (http.Handler, *memory.PlanStore) {
	t.Helper()

	store := memory.NewPlanStore()
	metrics := observability.NewMetrics()
	svc, err := session.NewService(llm.NewScriptedBackend(scripts...), store, session.Options{Metrics: metrics})
	require.NoError(t, err)

	return httpadapter.NewServer(svc, metrics), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	var out sessionBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPlanAndTurnFlow(t *testing.T) {
	srv, store := newTestServer(t,
		llm.Script{Parts: []string{"Intro: ...\n", "Ch1: ..."}},
		llm.Script{Parts: []string{"Wel", "come", ""}},
	)

	w := do(t, srv, http.MethodPost, "/plan", `{"topic":"Li Bai's poetry","depth":"middle-school"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decodeSession(t, w)
	assert.Equal(t, "plan_ready", sess.State)
	assert.True(t, strings.HasPrefix(sess.Outline, "Intro: ...\nCh1: ...\n\n"))
	assert.Equal(t, session.WelcomeMessage, sess.Welcome)
	assert.Equal(t, "friendly", sess.Preferences["tone"])

	w = do(t, srv, http.MethodPost, "/turns", `{"shortcut":"start"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: delta\ndata: {\"text\":\"Wel\"}\n\n")
	assert.Contains(t, body, "event: delta\ndata: {\"text\":\"Welcome\"}\n\n")
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: {\"role\":\"assistant\",\"content\":\"Welcome\"}\n\n"), body)

	saved, err := store.Load(t.Context(), "Li Bai's poetry")
	require.NoError(t, err)
	require.Len(t, saved.Messages, 2)
	assert.Equal(t, "start", saved.Messages[0].Content)
	assert.Equal(t, "Welcome", saved.Messages[1].Content)

	w = do(t, srv, http.MethodPost, "/turns", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code, "no pending user turn")

	w = do(t, srv, http.MethodGet, "/transcript", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Li Bai's poetry\n\n**user**: start\n\n**assistant**: Welcome\n\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Li Bai's poetry-transcript.md")
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, llm.Script{Err: assert.AnError})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"turn without plan", http.MethodPost, "/turns", `{"text":"hi"}`, http.StatusConflict},
		{"outline without plan", http.MethodGet, "/outline", "", http.StatusConflict},
		{"bad json", http.MethodPost, "/plan", `{`, http.StatusBadRequest},
		{"bad depth", http.MethodPut, "/session/preferences", `{"depth":"phd"}`, http.StatusBadRequest},
		{"bad model", http.MethodPut, "/session/preferences", `{"model":"gpt-2"}`, http.StatusBadRequest},
		{"unsafe topic", http.MethodPost, "/plan", `{"topic":"../x"}`, http.StatusBadRequest},
		{"backend failure", http.MethodPost, "/plan", `{"topic":"Go"}`, http.StatusBadGateway},
		{"unknown topic", http.MethodPost, "/topics/Haskell/load", "", http.StatusNotFound},
		{"both text and shortcut", http.MethodPost, "/turns", `{"text":"a","shortcut":"start"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestTopicsLoadAndReset(t *testing.T) {
	srv, _ := newTestServer(t,
		llm.Script{Parts: []string{"Ch1"}},
		llm.Script{Parts: []string{"Ch1"}},
	)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/plan", `{"topic":"Rust ownership"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/plan", `{"topic":"Go generics","style":"socratic"}`).Code)

	w := do(t, srv, http.MethodGet, "/topics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"topics":["Go generics","Rust ownership"]}`, w.Body.String())

	w = do(t, srv, http.MethodGet, "/topics?q=rust", "")
	assert.JSONEq(t, `{"topics":["Rust ownership"]}`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/reset", "")
	sess := decodeSession(t, w)
	assert.Equal(t, "no_plan", sess.State)
	assert.Empty(t, sess.Topic)
	assert.Empty(t, sess.Messages)

	w = do(t, srv, http.MethodPost, "/topics/Rust%20ownership/load", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Rust ownership", decodeSession(t, w).Topic)

	w = do(t, srv, http.MethodGet, "/outline", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Ch1\n\n"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Rust ownership-plan.txt")
}

func TestSetPreferencesKeepsUnsetFields(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPut, "/session/preferences", `{"tone":"humorous","model":"GLM-4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sess := decodeSession(t, w)
	assert.Equal(t, map[string]string{
		"depth":     "middle-school",
		"style":     "textbook",
		"tone":      "humorous",
		"framework": "deductive",
	}, sess.Preferences)
	assert.Equal(t, "GLM-4", sess.Model)
	assert.Len(t, sess.Shortcuts, 7)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/healthz", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `coollearn_http_requests_total{code="200",method="GET"}`)
}
