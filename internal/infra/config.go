package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string `env:"APP_ENV" env-default:"development"`
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	GeoIPDBPath string `env:"GEOIP_DB_PATH"`
	CatalogPath string `env:"CATALOG_PATH"`

	OutputDir         string        `env:"OUTPUT_DIR" env-default:"outputs"`
	DownloadTimeout   time.Duration `env:"DOWNLOAD_TIMEOUT" env-default:"120s"`
	JobWorkers        int           `env:"JOB_WORKERS" env-default:"4"`
	DefaultImageModel string        `env:"IMAGE_MODEL" env-default:"nano-banana-edit"`
	DefaultVideoModel string        `env:"VIDEO_MODEL" env-default:"grok"`

	Fal FalConfig

	CORSOrigins      []string      `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"30"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// FalConfig holds credentials and tuning for the fal queue client.
type FalConfig struct {
	Key            string        `env:"FAL_KEY,FAL_API_KEY"`
	QueueURL       string        `env:"FAL_QUEUE_URL" env-default:"https://queue.fal.run"`
	PollInterval   time.Duration `env:"FAL_POLL_INTERVAL" env-default:"1s"`
	AttemptTimeout time.Duration `env:"FAL_ATTEMPT_TIMEOUT" env-default:"10m"`
	MaxAttempts    int           `env:"FAL_MAX_ATTEMPTS" env-default:"5"`
	RetryMin       time.Duration `env:"FAL_RETRY_MIN" env-default:"2s"`
	RetryMax       time.Duration `env:"FAL_RETRY_MAX" env-default:"30s"`
	RatePerSec     float64       `env:"FAL_RATE_PER_SEC" env-default:"0"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	cfg.Fal.Key = strings.TrimSpace(cfg.Fal.Key)
	if cfg.Fal.Key == "" {
		return nil, fmt.Errorf("FAL_KEY is required")
	}
	if cfg.Fal.MaxAttempts < 1 {
		return nil, fmt.Errorf("FAL_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Fal.RetryMax < cfg.Fal.RetryMin {
		return nil, fmt.Errorf("FAL_RETRY_MAX (%s) must not be below FAL_RETRY_MIN (%s)", cfg.Fal.RetryMax, cfg.Fal.RetryMin)
	}
	if cfg.JobWorkers < 1 {
		cfg.JobWorkers = 1
	}
	cfg.CORSOrigins = normalizeList(cfg.CORSOrigins)

	return &cfg, nil
}

// ConfigUsage renders the environment variable reference for --help output.
func ConfigUsage() string {
	var cfg Config
	usage, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return usage
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
