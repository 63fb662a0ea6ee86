// Package config loads server settings from defaults, an optional YAML file and
// the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the server and CLI read.
type Config struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	UseMemoryStore bool     `yaml:"use_memory_store"`
	SkipAuth       bool     `yaml:"skip_auth"`
	ProjectID      string   `yaml:"project_id"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	AI       AIConfig       `yaml:"ai"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Algolia  AlgoliaConfig  `yaml:"algolia"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Limits   LimitsConfig   `yaml:"limits"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects where raw uploads go. GCS wins when Bucket is set.
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	LocalDir string `yaml:"local_dir"`
}

// AIConfig selects the step generator. Provider is gemini, anthropic or none.
type AIConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	StepTimeout     time.Duration `yaml:"step_timeout"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	PriceID       string `yaml:"price_id"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

type AlgoliaConfig struct {
	AppID     string `yaml:"app_id"`
	APIKey    string `yaml:"api_key"`
	IndexName string `yaml:"index_name"`
}

type BigQueryConfig struct {
	Dataset string `yaml:"dataset"`
}

// LimitsConfig bounds what a single upload may cost.
type LimitsConfig struct {
	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
	FreeScansPerMonth int   `yaml:"free_scans_per_month"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		// Default is 8111 to match the frontend proxy
		Port: "8111",
		Env:  "production",
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
		},
		Log:     LogConfig{Level: "info", Format: "console"},
		Storage: StorageConfig{LocalDir: "./data/uploads"},
		AI: AIConfig{
			Provider:    "none",
			StepTimeout: 8 * time.Second,
		},
		Algolia: AlgoliaConfig{IndexName: "findings"},
		Limits: LimitsConfig{
			MaxUploadBytes:    5 << 20,
			FreeScansPerMonth: 3,
		},
	}
}

// Load builds the configuration. CONFIG_FILE points at an optional YAML file.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("PORT", &c.Port)
	str("ENV", &c.Env)
	boolean("USE_MEMORY_STORE", &c.UseMemoryStore)
	boolean("SKIP_AUTH", &c.SkipAuth)
	str("GOOGLE_CLOUD_PROJECT", &c.ProjectID)
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("GCS_BUCKET", &c.Storage.Bucket)
	str("LOCAL_UPLOAD_DIR", &c.Storage.LocalDir)

	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("GEMINI_API_KEY", &c.AI.GeminiAPIKey)
	str("ANTHROPIC_API_KEY", &c.AI.AnthropicAPIKey)

	str("STRIPE_SECRET_KEY", &c.Stripe.SecretKey)
	str("STRIPE_WEBHOOK_SECRET", &c.Stripe.WebhookSecret)
	str("STRIPE_PRICE_ID", &c.Stripe.PriceID)
	str("STRIPE_SUCCESS_URL", &c.Stripe.SuccessURL)
	str("STRIPE_CANCEL_URL", &c.Stripe.CancelURL)

	str("ALGOLIA_APP_ID", &c.Algolia.AppID)
	str("ALGOLIA_API_KEY", &c.Algolia.APIKey)
	str("ALGOLIA_INDEX", &c.Algolia.IndexName)

	str("BIGQUERY_DATASET", &c.BigQuery.Dataset)

	// Local env always runs against the memory store
	if c.Env == "local" {
		c.UseMemoryStore = true
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.AI.Provider {
	case "none", "":
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			errs = append(errs, errors.New("ai.provider gemini needs GEMINI_API_KEY"))
		}
	case "anthropic":
		if c.AI.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ai.provider anthropic needs ANTHROPIC_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}
	if c.Limits.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("limits.max_upload_bytes must be positive"))
	}
	if !c.UseMemoryStore && c.ProjectID == "" {
		errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT is required unless the memory store is used"))
	}
	return errors.Join(errs...)
}

// IsLocal reports whether the server runs without cloud dependencies.
func (c Config) IsLocal() bool {
	return c.UseMemoryStore
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
