package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/coollearn/internal/app/lesson"
)

type Backend string

const (
	BackendMock      Backend = "mock"
	BackendOpenAI    Backend = "openai"
	BackendGemini    Backend = "gemini"
	BackendAnthropic Backend = "anthropic"
)

type Storage string

const (
	StorageFile      Storage = "file"
	StorageMemory    Storage = "memory"
	StorageFirestore Storage = "firestore"
)

var (
	Backends = []Backend{BackendMock, BackendOpenAI, BackendGemini, BackendAnthropic}
	Storages = []Storage{StorageFile, StorageMemory, StorageFirestore}
)

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	Backend Backend `yaml:"backend"`
	APIKey  string  `yaml:"api_key"`
	BaseURL string  `yaml:"base_url"`

	Models             []string `yaml:"models"`
	ChatModel          string   `yaml:"chat_model"`
	OutlineModel       string   `yaml:"outline_model"`
	ChatTemperature    float64  `yaml:"chat_temperature"`
	OutlineTemperature float64  `yaml:"outline_temperature"`

	Storage Storage `yaml:"storage"`
	DataDir string  `yaml:"data_dir"`

	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
}

func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Addr:               ":8080",
		LogLevel:           "info",
		Backend:            BackendOpenAI,
		BaseURL:            "https://open.bigmodel.cn/api/paas/v4",
		Models:             append([]string(nil), lesson.DefaultModels...),
		ChatModel:          lesson.DefaultChatModel,
		OutlineModel:       lesson.DefaultOutlineModel,
		ChatTemperature:    lesson.ChatTemperature,
		OutlineTemperature: lesson.DefaultTemperature,
		Storage:            StorageFile,
		DataDir:            filepath.Join(home, "coolearn"),
		GCPLocation:        "us-central1",
	}
}

// DefaultPath is ~/.config/coollearn/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "coollearn", "config.yaml")
}

// PlansDir is where the file store keeps its records.
func (c *Config) PlansDir() string {
	return filepath.Join(c.DataDir, "plans")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Load builds the config from defaults, then the YAML file at path (a
// missing file is fine), then a .env file in the working directory, then
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Addr = getEnv("COOLLEARN_ADDR", c.Addr)
	c.LogLevel = getEnv("COOLLEARN_LOG_LEVEL", c.LogLevel)

	c.Backend = Backend(getEnv("COOLLEARN_BACKEND", string(c.Backend)))
	c.APIKey = getEnv("GLM_APIKEY", c.APIKey)
	c.APIKey = getEnv("COOLLEARN_API_KEY", c.APIKey)
	c.BaseURL = getEnv("COOLLEARN_BASE_URL", c.BaseURL)

	c.ChatModel = getEnv("COOLLEARN_CHAT_MODEL", c.ChatModel)
	c.OutlineModel = getEnv("COOLLEARN_OUTLINE_MODEL", c.OutlineModel)
	c.ChatTemperature = getFloatEnv("COOLLEARN_CHAT_TEMPERATURE", c.ChatTemperature)
	c.OutlineTemperature = getFloatEnv("COOLLEARN_OUTLINE_TEMPERATURE", c.OutlineTemperature)

	c.Storage = Storage(getEnv("COOLLEARN_STORAGE", string(c.Storage)))
	c.DataDir = getEnv("DATA_DIR", c.DataDir)

	c.GCPProjectID = getEnv("COOLLEARN_GCP_PROJECT", c.GCPProjectID)
	c.GCPLocation = getEnv("COOLLEARN_GCP_LOCATION", c.GCPLocation)
}

func (c *Config) Validate() error {
	if !lo.Contains(Backends, c.Backend) {
		return fmt.Errorf("invalid backend: %s (valid: %v)", c.Backend, Backends)
	}
	if !lo.Contains(Storages, c.Storage) {
		return fmt.Errorf("invalid storage: %s (valid: %v)", c.Storage, Storages)
	}
	if c.Backend != BackendMock && c.Backend != BackendGemini && c.APIKey == "" {
		return fmt.Errorf("API key not configured for backend %s (set GLM_APIKEY or COOLLEARN_API_KEY)", c.Backend)
	}
	if c.Backend == BackendGemini && c.APIKey == "" && c.GCPProjectID == "" {
		return fmt.Errorf("gemini needs COOLLEARN_API_KEY or COOLLEARN_GCP_PROJECT")
	}
	if c.Storage == StorageFirestore && c.GCPProjectID == "" {
		return fmt.Errorf("COOLLEARN_GCP_PROJECT is required for firestore storage")
	}
	if c.Storage == StorageFile && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	for _, m := range []string{c.ChatModel, c.OutlineModel} {
		if !lo.Contains(c.Models, m) {
			return fmt.Errorf("model %q is not one of %v", m, c.Models)
		}
	}
	for name, t := range map[string]float64{"chat": c.ChatTemperature, "outline": c.OutlineTemperature} {
		if t < lesson.MinTemperature || t > lesson.MaxTemperature {
			return fmt.Errorf("%s temperature %.2f is outside [0, 1]", name, t)
		}
	}
	return nil
}
