package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

// Server exposes the one session of the process over HTTP. Every handler
// holds mu, so requests are served one at a time.
type Server struct {
	mu      sync.Mutex
	svc     *session.Service
	metrics *observability.Metrics
}

func NewServer(svc *session.Service, metrics *observability.Metrics) http.Handler {
	s := &Server{svc: svc, metrics: metrics}
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	router.HandleFunc("/session", s.handleGetSession).Methods(http.MethodGet)
	router.HandleFunc("/session/preferences", s.handleSetPreferences).Methods(http.MethodPut)
	router.HandleFunc("/plan", s.handleCreatePlan).Methods(http.MethodPost)
	router.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	router.HandleFunc("/topics", s.handleTopics).Methods(http.MethodGet)
	router.HandleFunc("/topics/{topic}/load", s.handleLoad).Methods(http.MethodPost)
	router.HandleFunc("/turns", s.handleTurn).Methods(http.MethodPost)
	router.HandleFunc("/transcript", s.handleTranscript).Methods(http.MethodGet)
	router.HandleFunc("/outline", s.handleOutline).Methods(http.MethodGet)

	return chainMiddlewares(router,
		withMetrics(metrics),
		withLogging,
		withRequestID,
		withCORS,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type preferencesBody struct {
	Depth     string `json:"depth"`
	Style     string `json:"style"`
	Tone      string `json:"tone"`
	Framework string `json:"framework"`
}

type setPreferencesRequest struct {
	preferencesBody
	Model string `json:"model,omitempty"`
}

type createPlanRequest struct {
	Topic string `json:"topic"`
	preferencesBody
}

type turnRequest struct {
	Text     string `json:"text,omitempty"`
	Shortcut string `json:"shortcut,omitempty"`
}

type messageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sessionResponse struct {
	Topic       string            `json:"topic"`
	State       string            `json:"state"`
	Preferences preferencesBody   `json:"preferences"`
	Outline     string            `json:"outline"`
	Messages    []messageResponse `json:"messages"`
	Welcome     string            `json:"welcome,omitempty"`
	Model       string            `json:"model"`
	Models      []string          `json:"models"`
	Shortcuts   []string          `json:"shortcuts"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var req setPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.mergePreferences(req.preferencesBody)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Model != "" {
		if err := s.svc.SetModel(req.Model); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.svc.SetPreferences(prefs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.mergePreferences(req.preferencesBody)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.CreatePlan(r.Context(), req.Topic, prefs, nil); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionResponse())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.svc.Reset()
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

// GET /topics lists stored plans; ?q= ranks them against a query instead.
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		topics []string
		err    error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		topics, err = s.svc.SuggestTopics(r.Context(), q)
	} else {
		topics, err = s.svc.Topics(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: topics})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.svc.Load(r.Context(), topic); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse())
}

// handleTurn appends the user turn, if any, then streams the assistant
// reply as server-sent events. An empty body retries the pending turn.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Text != "" && req.Shortcut != "" {
		badRequest(w, "send either text or shortcut, not both")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	var err error
	switch {
	case req.Shortcut != "":
		err = s.svc.TriggerShortcut(ctx, req.Shortcut)
	case req.Text != "":
		err = s.svc.AppendUserTurn(ctx, req.Text)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if s.svc.State() == domain.StateNoPlan {
		writeError(w, domain.ErrNoPlan)
		return
	}
	if last, ok := s.svc.Snapshot().LastMessage(); !ok || last.Role != domain.RoleUser {
		writeError(w, domain.ErrNoPendingTurn)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := observability.LoggerFromContext(ctx)
	msg, err := s.svc.ProduceAssistantTurn(ctx, func(text string) {
		if werr := sendSSEEvent(w, flusher, "delta", map[string]string{"text": text}); werr != nil {
			log.Debug("client went away mid-stream", "error", werr)
		}
	})
	if err != nil {
		_ = sendSSEEvent(w, flusher, "error", map[string]string{"error": err.Error()})
		return
	}
	_ = sendSSEEvent(w, flusher, "done", messageResponse{Role: string(msg.Role), Content: msg.Content})
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.svc.Snapshot()
	s.mu.Unlock()

	writeAttachment(w, "text/markdown; charset=utf-8", session.TranscriptFileName(snap.Topic),
		session.Transcript(snap.Topic, snap.Messages))
}

func (s *Server) handleOutline(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.svc.Snapshot()
	s.mu.Unlock()

	if snap.Outline == "" {
		writeError(w, domain.ErrNoPlan)
		return
	}
	writeAttachment(w, "text/plain; charset=utf-8", session.OutlineFileName(snap.Topic), snap.Outline)
}

// ─────────────────────────────────────────────
// Session helpers
// ─────────────────────────────────────────────

// mergePreferences fills fields missing from body with the current ones.
func (s *Server) mergePreferences(body preferencesBody) (domain.Preferences, error) {
	cur := s.svc.Snapshot().Preferences
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return domain.NewPreferences(
		pick(body.Depth, string(cur.Depth)),
		pick(body.Style, string(cur.Style)),
		pick(body.Tone, string(cur.Tone)),
		pick(body.Framework, string(cur.Framework)),
	)
}

func (s *Server) sessionResponse() sessionResponse {
	snap := s.svc.Snapshot()
	resp := sessionResponse{
		Topic:       snap.Topic,
		State:       string(snap.State()),
		Preferences: toPreferencesBody(snap.Preferences),
		Outline:     snap.Outline,
		Messages:    make([]messageResponse, 0, len(snap.Messages)),
		Model:       s.svc.ChatModel(),
		Models:      s.svc.Models(),
		Shortcuts:   session.ShortcutNames(),
	}
	for _, m := range snap.Messages {
		resp.Messages = append(resp.Messages, messageResponse{Role: string(m.Role), Content: m.Content})
	}
	if snap.State() == domain.StatePlanReady {
		resp.Welcome = session.WelcomeMessage
	}
	return resp
}

func toPreferencesBody(p domain.Preferences) preferencesBody {
	return preferencesBody{
		Depth:     string(p.Depth),
		Style:     string(p.Style),
		Tone:      string(p.Tone),
		Framework: string(p.Framework),
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAttachment(w http.ResponseWriter, contentType, name, body string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrUnknownShortcut):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoPlan), errors.Is(err, domain.ErrNoPendingTurn):
		return http.StatusConflict
	case domain.IsBackend(err), errors.Is(err, domain.ErrEmptyOutline):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// sendSSEEvent writes one event and flushes it. It returns an error when
// the client is gone.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataBytes); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	flusher.Flush()
	return nil
}
