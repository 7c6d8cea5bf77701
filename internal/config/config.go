package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAppEnv         = "dev"
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "image_api.db"
	defaultStorageDir     = "./storage"
	defaultMaxUploadBytes = 20 << 20
	defaultLogLevel       = "info"
)

// Config is the runtime configuration of the image API.
// Precedence: defaults < YAML file < environment (.env included) < CLI flags.
type Config struct {
	AppEnv             string   `yaml:"app_env"`
	HTTPAddr           string   `yaml:"http_addr"`
	DatabaseURL        string   `yaml:"database_url"`
	StorageDir         string   `yaml:"storage_dir"`
	MaxUploadBytes     int64    `yaml:"max_upload_bytes"`
	LogLevel           string   `yaml:"log_level"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

func Default() *Config {
	return &Config{
		AppEnv:         defaultAppEnv,
		HTTPAddr:       defaultHTTPAddr,
		DatabaseURL:    defaultDatabaseURL,
		StorageDir:     defaultStorageDir,
		MaxUploadBytes: defaultMaxUploadBytes,
		LogLevel:       defaultLogLevel,
	}
}

// Load reads .env (if present), the optional YAML file at path, then the
// process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("config loaded",
		"app_env", cfg.AppEnv,
		"http_addr", cfg.HTTPAddr,
		"storage_dir", cfg.StorageDir,
		"max_upload_bytes", cfg.MaxUploadBytes,
	)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv != "" {
		cfg.AppEnv = appEnv
	}
	cfg.AppEnv = strings.ToLower(cfg.AppEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", cfg.HTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", cfg.DatabaseURL))
	cfg.StorageDir = strings.TrimSpace(getEnv("STORAGE_DIR", cfg.StorageDir))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", cfg.LogLevel))

	if v := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES value %q: %w", v, err)
		}
		cfg.MaxUploadBytes = n
	}

	// e.g. CORS_ALLOWED_ORIGINS=https://app.com,https://admin.app.com
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageDir) == "" {
		return fmt.Errorf("STORAGE_DIR must not be empty")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.IsProdLike() && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("in prod/release DATABASE_URL must be set")
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
