// Package session owns the one tutoring session of a process: its plan,
// preferences and transcript, and every transition between them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/PabloGalante/coollearn/internal/app/lesson"
	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

// TimestampLayout formats the outline annotation and the assess marker.
const TimestampLayout = "2006-01-02 15:04:05"

// Options configures a Service. Nil temperatures fall back to the lesson
// defaults; zero is a valid setting.
type Options struct {
	ChatModel          string
	OutlineModel       string
	Models             []string
	ChatTemperature    *float64
	OutlineTemperature *float64

	Metrics *observability.Metrics
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if len(o.Models) == 0 {
		o.Models = lesson.DefaultModels
	}
	if o.ChatModel == "" {
		o.ChatModel = lesson.DefaultChatModel
	}
	if o.OutlineModel == "" {
		o.OutlineModel = lesson.DefaultOutlineModel
	}
	if o.ChatTemperature == nil {
		o.ChatTemperature = lo.ToPtr(lesson.ChatTemperature)
	}
	if o.OutlineTemperature == nil {
		o.OutlineTemperature = lo.ToPtr(lesson.DefaultTemperature)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service is the session state machine. It is not safe for concurrent use;
// adapters that share it must serialise calls.
type Service struct {
	chat     *lesson.ChatDriver
	outlines *lesson.OutlineGenerator
	store    domain.PlanStore
	metrics  *observability.Metrics
	now      func() time.Time

	models          []string
	chatModel       string
	chatTemperature float64

	session *domain.Session
}

func NewService(backend domain.ChatBackend, store domain.PlanStore, opts Options) (*Service, error) {
	opts = opts.withDefaults()

	if !lo.Contains(opts.Models, opts.ChatModel) {
		return nil, &domain.ValidationError{Field: "chat model", Reason: fmt.Sprintf("%q is not one of %v", opts.ChatModel, opts.Models)}
	}
	for field, t := range map[string]float64{"temperature": *opts.ChatTemperature, "outline temperature": *opts.OutlineTemperature} {
		if t < lesson.MinTemperature || t > lesson.MaxTemperature {
			return nil, &domain.ValidationError{Field: field, Reason: fmt.Sprintf("%.2f is outside [0, 1]", t)}
		}
	}

	chat := lesson.NewChatDriver(backend)
	return &Service{
		chat:            chat,
		outlines:        lesson.NewOutlineGenerator(chat, opts.OutlineModel, *opts.OutlineTemperature),
		store:           store,
		metrics:         opts.Metrics,
		now:             opts.Now,
		models:          opts.Models,
		chatModel:       opts.ChatModel,
		chatTemperature: *opts.ChatTemperature,
		session:         domain.NewSession(),
	}, nil
}

// Snapshot returns a copy of the current session.
func (s *Service) Snapshot() *domain.Session {
	return s.session.Clone()
}

func (s *Service) State() domain.State {
	return s.session.State()
}

// SetPreferences changes the preferences used by the next plan and by
// every following assistant turn.
func (s *Service) SetPreferences(prefs domain.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	s.session.Preferences = prefs
	return nil
}

func (s *Service) Models() []string {
	return append([]string(nil), s.models...)
}

func (s *Service) ChatModel() string {
	return s.chatModel
}

// SetModel selects the model used for assistant turns.
func (s *Service) SetModel(model string) error {
	if !lo.Contains(s.models, model) {
		return &domain.ValidationError{Field: "model", Reason: fmt.Sprintf("%q is not one of %v", model, s.models)}
	}
	s.chatModel = model
	return nil
}

// CreatePlan generates an outline for topic and starts a fresh transcript.
// The current session is kept as is when validation, the backend or the
// outline itself fails.
func (s *Service) CreatePlan(ctx context.Context, topic string, prefs domain.Preferences, observe stream.Observer) error {
	ctx = observability.EnsureRequestID(ctx)
	log := observability.LoggerFromContext(ctx).With("topic", topic, "state", s.State())

	if err := domain.ValidateTopic(topic); err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return err
	}

	log.Info("creating plan")

	st, err := s.outlines.Generate(ctx, topic, prefs)
	if err != nil {
		s.backendFailed("outline", log, err)
		return err
	}
	outline, err := stream.Aggregate(st, s.countDeltas(observe))
	if err != nil {
		s.backendFailed("outline", log, err)
		return err
	}
	if strings.TrimSpace(outline) == "" {
		log.Warn("backend returned an empty outline")
		return domain.ErrEmptyOutline
	}

	s.session = &domain.Session{
		Topic:       topic,
		Preferences: prefs,
		Outline:     outline + "\n\n" + s.now().Format(TimestampLayout),
		Messages:    []domain.Message{},
	}
	s.countTurn("plan")
	log.Info("plan created", "outline_bytes", len(s.session.Outline))

	return s.persist(ctx, log)
}

// Reset drops topic, outline and transcript. Preferences survive.
func (s *Service) Reset() {
	prefs := s.session.Preferences
	s.session = domain.NewSession()
	s.session.Preferences = prefs
	s.countTurn("reset")
	observability.Logger().Info("session reset")
}

// AppendUserTurn records text as the next user message. Consecutive user
// turns are allowed.
func (s *Service) AppendUserTurn(ctx context.Context, text string) error {
	ctx = observability.EnsureRequestID(ctx)
	log := observability.LoggerFromContext(ctx).With("topic", s.session.Topic)

	if s.session.Outline == "" {
		return domain.ErrNoPlan
	}
	if strings.TrimSpace(text) == "" {
		return &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}

	s.append(domain.RoleUser, text)
	s.countTurn("user")
	log.Debug("user turn appended", "messages", len(s.session.Messages))

	return s.persist(ctx, log)
}

// TriggerShortcut appends the label of a named shortcut as a user turn.
// "assess" is preceded by a cutoff marker carrying the current time.
func (s *Service) TriggerShortcut(ctx context.Context, name string) error {
	ctx = observability.EnsureRequestID(ctx)
	log := observability.LoggerFromContext(ctx).With("topic", s.session.Topic, "shortcut", name)

	sc, ok := LookupShortcut(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownShortcut, name)
	}
	if s.session.Outline == "" {
		return domain.ErrNoPlan
	}

	if sc.Name == ShortcutAssess {
		s.append(domain.RoleUser, AssessMarker(s.now()))
	}
	s.append(domain.RoleUser, sc.Label)
	s.countTurn("shortcut")
	log.Info("shortcut triggered", "messages", len(s.session.Messages))

	return s.persist(ctx, log)
}

// ProduceAssistantTurn answers the pending user turn. observe sees the
// cumulative reply after every delta. On a backend failure nothing is
// appended. A save failure is returned together with the appended message.
func (s *Service) ProduceAssistantTurn(ctx context.Context, observe stream.Observer) (domain.Message, error) {
	ctx = observability.EnsureRequestID(ctx)
	log := observability.LoggerFromContext(ctx).With("topic", s.session.Topic, "model", s.chatModel)

	if s.session.Outline == "" {
		return domain.Message{}, domain.ErrNoPlan
	}
	last, ok := s.session.LastMessage()
	if !ok || last.Role != domain.RoleUser {
		return domain.Message{}, domain.ErrNoPendingTurn
	}

	history := s.session.Clone().Messages
	st, err := s.chat.Stream(ctx, lesson.ChatInput{
		System:      lesson.BuildTutorInstruction(s.session.Preferences, s.session.Outline),
		Prompt:      last.Content,
		History:     history,
		Temperature: s.chatTemperature,
		Model:       s.chatModel,
	})
	if err != nil {
		s.backendFailed("chat", log, err)
		return domain.Message{}, err
	}
	reply, err := stream.Aggregate(st, s.countDeltas(observe))
	if err != nil {
		s.backendFailed("chat", log, err)
		return domain.Message{}, err
	}
	if reply == "" {
		log.Warn("assistant reply is empty, appending it anyway")
	}

	msg := s.append(domain.RoleAssistant, reply)
	s.countTurn("assistant")
	log.Info("assistant turn appended", "reply_bytes", len(reply), "messages", len(s.session.Messages))

	return msg, s.persist(ctx, log)
}

// Load replaces the whole session with the stored plan for topic.
func (s *Service) Load(ctx context.Context, topic string) error {
	ctx = observability.EnsureRequestID(ctx)
	log := observability.LoggerFromContext(ctx).With("topic", topic)

	if err := domain.ValidateTopic(topic); err != nil {
		return err
	}
	loaded, err := s.store.Load(ctx, topic)
	if err != nil {
		log.Error("failed to load plan", "error", err)
		return err
	}

	s.session = loaded
	s.countTurn("load")
	log.Info("plan loaded", "state", s.State(), "messages", len(loaded.Messages))
	return nil
}

// Topics lists the stored plans.
func (s *Service) Topics(ctx context.Context) ([]string, error) {
	return s.store.ListTopics(ctx)
}

// SuggestTopics returns stored topics resembling query, closest first.
func (s *Service) SuggestTopics(ctx context.Context, query string) ([]string, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(query), topics)
	sort.Sort(ranks)
	return lo.Map(ranks, func(r fuzzy.Rank, _ int) string { return r.Target }), nil
}

func (s *Service) append(role domain.Role, content string) domain.Message {
	msg := domain.Message{Role: role, Content: content}
	s.session.Messages = append(s.session.Messages, msg)
	return msg
}

// persist saves the session unless it has no outline. The in-memory
// session is kept even when the save fails.
func (s *Service) persist(ctx context.Context, log *slog.Logger) error {
	if s.session.Outline == "" {
		return nil
	}
	if err := s.store.Save(ctx, s.session); err != nil {
		s.countSave("error")
		log.Error("failed to save plan", "error", err)
		return fmt.Errorf("saving plan %q: %w", s.session.Topic, err)
	}
	s.countSave("ok")
	return nil
}

func (s *Service) backendFailed(op string, log *slog.Logger, err error) {
	log.Error("backend call failed", "op", op, "error", err)
	if s.metrics != nil && !errors.Is(err, domain.ErrStreamConsumed) && !domain.IsValidation(err) {
		s.metrics.BackendErrors.WithLabelValues(op).Inc()
	}
}

func (s *Service) countDeltas(observe stream.Observer) stream.Observer {
	if s.metrics == nil {
		return observe
	}
	return func(text string) {
		s.metrics.Deltas.Inc()
		if observe != nil {
			observe(text)
		}
	}
}

func (s *Service) countTurn(kind string) {
	if s.metrics != nil {
		s.metrics.Turns.WithLabelValues(kind).Inc()
	}
}

func (s *Service) countSave(result string) {
	if s.metrics != nil {
		s.metrics.PlanSaves.WithLabelValues(result).Inc()
	}
}
