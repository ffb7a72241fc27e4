package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/coollearn/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/coollearn/internal/adapters/storage/firestore"
	"github.com/PabloGalante/coollearn/internal/adapters/storage/file"
	memstore "github.com/PabloGalante/coollearn/internal/adapters/storage/memory"
	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/config"
	"github.com/PabloGalante/coollearn/internal/domain"
	"github.com/PabloGalante/coollearn/internal/observability"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "coollearn",
		Short:        "Personalised tutoring: lesson plans and guided conversations",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath(), "Config file path (optional).")
	cmd.PersistentFlags().String("backend", "", "Chat backend: mock, openai, gemini or anthropic.")
	cmd.PersistentFlags().String("storage", "", "Plan storage: file, memory or firestore.")
	cmd.PersistentFlags().String("data-dir", "", "Data directory for the file store.")
	cmd.PersistentFlags().String("model", "", "Model used for lesson replies.")
	cmd.PersistentFlags().String("log-level", "", "debug, info, warn or error.")

	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newTopicsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// app is everything a command needs, built from config and flags.
type app struct {
	cfg     *config.Config
	svc     *session.Service
	metrics *observability.Metrics
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.Backend = config.Backend(v)
	}
	if v, _ := flags.GetString("storage"); v != "" {
		cfg.Storage = config.Storage(v)
	}
	if v, _ := flags.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := flags.GetString("model"); v != "" {
		cfg.ChatModel = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	observability.Configure(cmd.ErrOrStderr(), cfg.LogLevel)

	a := &app{cfg: cfg, metrics: observability.NewMetrics()}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	a.svc, err = session.NewService(backend, store, session.Options{
		ChatModel:          cfg.ChatModel,
		OutlineModel:       cfg.OutlineModel,
		Models:             cfg.Models,
		ChatTemperature:    &cfg.ChatTemperature,
		OutlineTemperature: &cfg.OutlineTemperature,
		Metrics:            a.metrics,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (domain.ChatBackend, error) {
	log := observability.WithFields("backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendMock:
		log.Info("using scripted mock backend")
		return llm.NewMockLLM(), nil
	case config.BackendOpenAI:
		log.Info("using OpenAI-compatible backend", "base_url", cfg.BaseURL)
		return llm.NewOpenAIBackend(cfg.APIKey, cfg.BaseURL, cfg.ChatModel)
	case config.BackendGemini:
		log.Info("using Gemini backend", "project", cfg.GCPProjectID)
		return llm.NewGeminiBackend(ctx, llm.GeminiConfig{
			APIKey:    cfg.APIKey,
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
		})
	case config.BackendAnthropic:
		log.Info("using Anthropic backend")
		return llm.NewAnthropicBackend(cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (a *app) newStore(ctx context.Context) (domain.PlanStore, error) {
	log := observability.WithFields("storage", a.cfg.Storage)

	switch a.cfg.Storage {
	case config.StorageMemory:
		log.Info("using in-memory storage")
		return memstore.NewPlanStore(), nil
	case config.StorageFirestore:
		log.Info("using Firestore storage", "project", a.cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, a.cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fs.Close)
		return fs, nil
	default:
		fs := file.NewStore(a.cfg.PlansDir())
		log.Info("using file storage", "dir", fs.Dir())
		return fs, nil
	}
}

// withApp builds the app for the command and closes it afterwards.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// loadTopic loads topic, suggesting close matches when it does not exist.
func loadTopic(ctx context.Context, a *app, topic string) error {
	err := a.svc.Load(ctx, topic)
	if !domain.IsNotFound(err) {
		return err
	}
	suggestions, serr := a.svc.SuggestTopics(ctx, topic)
	if serr != nil || len(suggestions) == 0 {
		return err
	}
	return fmt.Errorf("%w (did you mean %q?)", err, suggestions[0])
}
