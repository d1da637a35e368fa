package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultOutputDir       = "./output"
	defaultCacheDir        = "./.cache/images"
	defaultPlaceholderDir  = "./assets/placeholders"
	defaultDatabasePath    = "./slidecraft.db"
	defaultGCSCatalogDir   = "placeholders"
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultGroqFallback    = "llama-3.1-8b-instant"
	defaultSlideCount      = 7
	defaultMaxSlideCount   = 15
	defaultMinSlideCount   = 3
	defaultLanguage        = "English"
	defaultSourceTimeoutMS = 5000
	defaultGenTimeoutMS    = 30000
	defaultBudgetMS        = 45000
	defaultMinImageBytes   = 10000
	defaultImageWidth      = 1200
	defaultImageHeight     = 800
	defaultParallelism     = 3
	defaultPollTimeout     = 30
)

type Config struct {
	TelegramBotToken  string
	GroqAPIKey        string
	UnsplashAccessKey string
	PexelsAPIKey      string
	PixabayAPIKey     string
	GCSBucket         string
	SecretProject     string

	Groq         GroqConfig         `yaml:"groq"`
	Content      ContentConfig      `yaml:"content"`
	Deck         DeckConfig         `yaml:"deck"`
	Sources      SourcesConfig      `yaml:"sources"`
	Placeholders PlaceholdersConfig `yaml:"placeholders"`
	Database     DatabaseConfig     `yaml:"database"`
	Telegram     TelegramConfig     `yaml:"telegram"`
}

type GroqConfig struct {
	Model          string   `yaml:"model"`
	FallbackModels []string `yaml:"fallback_models"`
}

type ContentConfig struct {
	SlideCount    int    `yaml:"slide_count"`
	MinSlideCount int    `yaml:"min_slide_count"`
	MaxSlideCount int    `yaml:"max_slide_count"`
	Language      string `yaml:"language"`
	Parallelism   int    `yaml:"parallelism"`
}

type DeckConfig struct {
	OutputDir   string `yaml:"output_dir"`
	ImageWidth  int    `yaml:"image_width"`
	ImageHeight int    `yaml:"image_height"`
}

type SourcesConfig struct {
	TimeoutMS           int    `yaml:"timeout_ms"`
	GenerativeTimeoutMS int    `yaml:"generative_timeout_ms"`
	BudgetMS            int    `yaml:"budget_ms"`
	ShuffleTiers        bool   `yaml:"shuffle_tiers"`
	MinImageBytes       int    `yaml:"min_image_bytes"`
	CacheDir            string `yaml:"cache_dir"`
}

type PlaceholdersConfig struct {
	Dir           string `yaml:"dir"`
	GCSCatalogDir string `yaml:"gcs_catalog_dir"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type TelegramConfig struct {
	PollTimeoutSec int `yaml:"poll_timeout_sec"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		PexelsAPIKey:      os.Getenv("PEXELS_API_KEY"),
		PixabayAPIKey:     os.Getenv("PIXABAY_API_KEY"),
		GCSBucket:         os.Getenv("GCS_BUCKET"),
		SecretProject:     os.Getenv("SECRET_PROJECT"),
	}

	loadYAMLConfig(cfg)
	applyEnvOverrides(cfg)

	if cfg.SecretProject != "" {
		if err := fillFromSecretManager(ctx, cfg); err != nil {
			slog.Warn("Secret Manager lookup failed, continuing with env credentials", "error", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := envInt("RESOLUTION_TIMEOUT_MS"); v > 0 {
		cfg.Sources.TimeoutMS = v
	}
	if v := envInt("RESOLUTION_BUDGET_MS"); v > 0 {
		cfg.Sources.BudgetMS = v
	}
	if os.Getenv("SOURCE_SHUFFLE_TIERS") == "true" {
		cfg.Sources.ShuffleTiers = true
	}
	if v := os.Getenv("LOCAL_PLACEHOLDER_DIR"); v != "" {
		cfg.Placeholders.Dir = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func applyDefaults(cfg *Config) {
	applyGroqDefaults(cfg)
	applyContentDefaults(cfg)
	applyDeckDefaults(cfg)
	applySourcesDefaults(cfg)
	applyPlaceholderDefaults(cfg)
	applyDatabaseDefaults(cfg)
	applyTelegramDefaults(cfg)
}

func applyGroqDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if len(cfg.Groq.FallbackModels) == 0 {
		cfg.Groq.FallbackModels = []string{defaultGroqFallback}
	}
}

func applyContentDefaults(cfg *Config) {
	if cfg.Content.SlideCount == 0 {
		cfg.Content.SlideCount = defaultSlideCount
	}
	if cfg.Content.MinSlideCount == 0 {
		cfg.Content.MinSlideCount = defaultMinSlideCount
	}
	if cfg.Content.MaxSlideCount == 0 {
		cfg.Content.MaxSlideCount = defaultMaxSlideCount
	}
	if cfg.Content.Language == "" {
		cfg.Content.Language = defaultLanguage
	}
	if cfg.Content.Parallelism == 0 {
		cfg.Content.Parallelism = defaultParallelism
	}
}

func applyDeckDefaults(cfg *Config) {
	if cfg.Deck.OutputDir == "" {
		cfg.Deck.OutputDir = defaultOutputDir
	}
	if cfg.Deck.ImageWidth == 0 {
		cfg.Deck.ImageWidth = defaultImageWidth
	}
	if cfg.Deck.ImageHeight == 0 {
		cfg.Deck.ImageHeight = defaultImageHeight
	}
}

func applySourcesDefaults(cfg *Config) {
	if cfg.Sources.TimeoutMS == 0 {
		cfg.Sources.TimeoutMS = defaultSourceTimeoutMS
	}
	if cfg.Sources.GenerativeTimeoutMS == 0 {
		cfg.Sources.GenerativeTimeoutMS = defaultGenTimeoutMS
	}
	if cfg.Sources.BudgetMS == 0 {
		cfg.Sources.BudgetMS = defaultBudgetMS
	}
	if cfg.Sources.MinImageBytes == 0 {
		cfg.Sources.MinImageBytes = defaultMinImageBytes
	}
	if cfg.Sources.CacheDir == "" {
		cfg.Sources.CacheDir = defaultCacheDir
	}
}

func applyPlaceholderDefaults(cfg *Config) {
	if cfg.Placeholders.Dir == "" {
		cfg.Placeholders.Dir = defaultPlaceholderDir
	}
	if cfg.Placeholders.GCSCatalogDir == "" {
		cfg.Placeholders.GCSCatalogDir = defaultGCSCatalogDir
	}
}

func applyDatabaseDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
}

func applyTelegramDefaults(cfg *Config) {
	if cfg.Telegram.PollTimeoutSec == 0 {
		cfg.Telegram.PollTimeoutSec = defaultPollTimeout
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring non-numeric env value", "key", key, "value", v)
		return 0
	}
	return n
}
