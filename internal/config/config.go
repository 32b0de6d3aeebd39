// Package config loads FindShroom server configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix is prepended to every environment variable name.
const envPrefix = "FINDSHROOM_"

// Recognition backends.
const (
	BackendGemini = "gemini"
	BackendSpace  = "space"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Data        DataConfig
	Server      ServerConfig
	Auth        AuthConfig
	Recognition RecognitionConfig
	Cache       CacheConfig
	Search      SearchConfig
	Metrics     MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// DataConfig holds the on-disk layout. The SQLite database, session store,
// search index, photos and auth key all live under BasePath.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key, set from auth.LoadOrGenerateKey at startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// AdminUsername promotes the matching user to admin on registration.
	// When empty, the first registered user becomes admin.
	AdminUsername string
}

// RecognitionConfig selects and configures the image recognition backend.
type RecognitionConfig struct {
	Backend        string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string
	SpaceURL       string
	Timeout        time.Duration
	// RatePerMinute limits recognition calls per user. Zero disables the limit.
	RatePerMinute int
}

// CacheConfig configures the optional Redis recognition cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// SearchConfig configures the catalog full-text index.
type SearchConfig struct {
	Enabled bool
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (FINDSHROOM_*).
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("findshroom", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	dataPath := fs.String("data-path", "", "Base path for databases and photos")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 90s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 720h)")
	adminUsername := fs.String("admin-username", "", "Username promoted to admin on registration")

	backend := fs.String("recognition-backend", "", "Recognition backend (gemini, space)")
	geminiKey := fs.String("gemini-api-key", "", "Generative Language API key")
	geminiModel := fs.String("gemini-model", "", "Gemini model name (default: gemini-2.0-flash)")
	spaceURL := fs.String("space-url", "", "Inference Space predict URL")
	recognitionTimeout := fs.String("recognition-timeout", "", "Gemini request timeout (default: 60s)")
	recognitionRate := fs.String("recognition-rate", "", "Recognition calls per user per minute (default: 10)")

	redisAddr := fs.String("redis-addr", "", "Redis address for the recognition cache (empty disables)")
	searchEnabled := fs.String("search", "", "Enable the catalog full-text index (default: true)")
	metricsEnabled := fs.String("metrics", "", "Expose Prometheus metrics (default: true)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Existing environment variables win over the .env file.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			AdminUsername: getConfigValue(*adminUsername, "ADMIN_USERNAME", ""),
		},
		Recognition: RecognitionConfig{
			Backend:        getConfigValue(*backend, "RECOGNITION_BACKEND", BackendSpace),
			GeminiAPIKey:   getConfigValue(*geminiKey, "GEMINI_API_KEY", ""),
			GeminiModel:    getConfigValue(*geminiModel, "GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiEndpoint: getConfigValue("", "GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),
			SpaceURL:       getConfigValue(*spaceURL, "SPACE_URL", "https://stardust2811-findshroomapi.hf.space/predict"),
			RatePerMinute:  getIntConfigValue(*recognitionRate, "RECOGNITION_RATE", 10),
		},
		Cache: CacheConfig{
			RedisAddr:     getConfigValue(*redisAddr, "REDIS_ADDR", ""),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		target *time.Duration
	}{
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		// Recognition uploads can take up to a minute upstream.
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "90s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"access token duration", *accessTokenDuration, "ACCESS_TOKEN_DURATION", "720h", &cfg.Auth.AccessTokenDuration},
		{"recognition timeout", *recognitionTimeout, "RECOGNITION_TIMEOUT", "60s", &cfg.Recognition.Timeout},
		{"cache ttl", "", "CACHE_TTL", "24h", &cfg.Cache.TTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Recognition.Backend {
	case BackendGemini:
		if c.Recognition.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini recognition backend")
		}
	case BackendSpace:
		if c.Recognition.SpaceURL == "" {
			return errors.New("SPACE_URL is required for the space recognition backend")
		}
	default:
		return fmt.Errorf("invalid recognition backend: %s (must be gemini or space)", c.Recognition.Backend)
	}

	if c.Recognition.Timeout <= 0 {
		return errors.New("recognition timeout must be positive")
	}
	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}
	if c.Recognition.RatePerMinute < 0 {
		return errors.New("recognition rate cannot be negative")
	}

	return nil
}

// Path joins elements onto the data base path.
func (c *Config) Path(elem ...string) string {
	return filepath.Join(append([]string{c.Data.BasePath}, elem...)...)
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "FindShroom", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envPrefix + envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
