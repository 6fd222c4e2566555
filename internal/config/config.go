package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string
	Timezone string

	// Storage
	DataBackend        string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SQLitePath         string

	// AI
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	AITimeout         time.Duration
	AIMinConfidence   float64
	CategoryRulesFile string

	// Telegram
	TelegramBotToken    string
	TelegramEnabled     bool
	TelegramPollTimeout time.Duration

	// Scheduled detection
	CronSecret            string
	DetectionWindowMonths int
	AmountTolerance       float64
	NotifyConcurrency     int

	// Broadcast queue
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Uploads
	MaxUploadBytes int64

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
}

// LoadDotEnv loads a .env file without overriding variables that are
// already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Asia/Jakarta"),

		DataBackend:        strings.ToLower(getEnv("DATA_BACKEND", BackendSQLite)),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SQLitePath:         getEnv("SQLITE_DB_PATH", "data/monev.db"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:         getEnvDuration("AI_TIMEOUT", 30*time.Second),
		AIMinConfidence:   getEnvFloat("AI_MIN_CONFIDENCE", 0.5),
		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramEnabled:     getEnvBool("TELEGRAM_ENABLED", false),
		TelegramPollTimeout: getEnvDuration("TELEGRAM_POLL_TIMEOUT", 10*time.Second),

		CronSecret:            getEnv("CRON_SECRET", ""),
		DetectionWindowMonths: getEnvInt("DETECTION_WINDOW_MONTHS", 3),
		AmountTolerance:       getEnvFloat("AMOUNT_TOLERANCE", 0.05),
		NotifyConcurrency:     getEnvInt("NOTIFY_CONCURRENCY", 4),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "monev"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "monev.notifications"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 15*time.Minute),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:     getEnv("JWT_SECRET", "monev-default-dev-secret-change-me"),
		JWTAccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return errors.New("DATA_BACKEND=supabase needs SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("DATA_BACKEND=sqlite needs SQLITE_DB_PATH")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q", c.DataBackend)
	}
	if c.TelegramEnabled && c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_ENABLED needs TELEGRAM_BOT_TOKEN")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.DetectionWindowMonths < 1 || c.DetectionWindowMonths > 24 {
		return errors.New("DETECTION_WINDOW_MONTHS must be between 1 and 24")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
