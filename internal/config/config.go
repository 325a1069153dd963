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

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Auth      AuthConfig
	Upstream  UpstreamConfig
	Browser   BrowserConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
	Artifacts ArtifactsConfig
	Logger    LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// AuthConfig holds the shared secret callers present on every request.
// When APIKeyHash is set it takes precedence over the plaintext APIKey.
type AuthConfig struct {
	APIKey     string
	APIKeyHash string
	Header     string
}

// UpstreamConfig describes the bodyshop web application driven by the browser.
type UpstreamConfig struct {
	BaseURL       string
	LoginEmail    string
	LoginPassword string
	MSOEntryText  string
	MSOLinkName   string
}

// BrowserConfig tunes headless browser sessions and admission.
type BrowserConfig struct {
	Headless           bool
	ActionTimeout      time.Duration
	MaxSessions        int
	AdmissionWait      time.Duration
	MarkerTimeout      time.Duration
	MarkerPollInterval time.Duration
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// AMQPConfig configures outcome event publishing. An empty URL disables it.
type AMQPConfig struct {
	URL   string
	Queue string
}

// ArtifactsConfig selects where failure screenshots are written.
type ArtifactsConfig struct {
	GCSBucket          string
	GCSCredentialsPath string
	LocalDir           string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "mso-provisioning-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 300),
		},
		Auth: AuthConfig{
			APIKey:     os.Getenv("API_KEY"),
			APIKeyHash: os.Getenv("API_KEY_BCRYPT_HASH"),
			Header:     getEnv("API_KEY_HEADER", "api-key"),
		},
		Upstream: UpstreamConfig{
			BaseURL:       strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://zenetec.bodyshopconnect.com"), "/"),
			LoginEmail:    os.Getenv("EMAIL_USER"),
			LoginPassword: os.Getenv("PASSWORD_USER"),
			MSOEntryText:  getEnv("UPSTREAM_MSO_ENTRY_TEXT", "ABR Zenetec MSOIntelAuto"),
			MSOLinkName:   getEnv("UPSTREAM_MSO_LINK_NAME", "Zenetec MSO"),
		},
		Browser: BrowserConfig{
			Headless:           getEnvAsBool("BROWSER_HEADLESS", true),
			ActionTimeout:      getEnvAsDuration("BROWSER_ACTION_TIMEOUT", 30*time.Second),
			MaxSessions:        getEnvAsInt("BROWSER_MAX_SESSIONS", 2),
			AdmissionWait:      getEnvAsDuration("BROWSER_ADMISSION_WAIT", 2*time.Minute),
			MarkerTimeout:      getEnvAsDuration("BROWSER_MARKER_TIMEOUT", 0),
			MarkerPollInterval: getEnvAsDuration("BROWSER_MARKER_POLL_INTERVAL", 500*time.Millisecond),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", 10*time.Minute),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv("RABBITMQ_URL"),
			Queue: getEnv("RABBITMQ_EVENTS_QUEUE", "provisioning-events"),
		},
		Artifacts: ArtifactsConfig{
			GCSBucket:          os.Getenv("GCS_BUCKET"),
			GCSCredentialsPath: os.Getenv("GCS_CREDENTIALS_JSON"),
			LocalDir:           os.Getenv("ARTIFACTS_DIR"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Auth.APIKey == "" && cfg.Auth.APIKeyHash == "" {
		return nil, errors.New("API_KEY or API_KEY_BCRYPT_HASH must be set")
	}
	if cfg.Browser.MaxSessions <= 0 {
		return nil, fmt.Errorf("invalid BROWSER_MAX_SESSIONS: %d", cfg.Browser.MaxSessions)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginURL is the upstream sign-in page.
func (u UpstreamConfig) LoginURL() string {
	return u.BaseURL + "/login"
}

// EmployeeCreateURL is the upstream employee creation form.
func (u UpstreamConfig) EmployeeCreateURL() string {
	return u.BaseURL + "/employee/default/create"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	return getEnvParsed(key, fallback, strconv.Atoi)
}

func getEnvAsBool(key string, fallback bool) bool {
	return getEnvParsed(key, fallback, strconv.ParseBool)
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	return getEnvParsed(key, fallback, time.ParseDuration)
}

// getEnvParsed returns fallback when key is unset or does not parse.
func getEnvParsed[T any](key string, fallback T, parse func(string) (T, error)) T {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := parse(val)
	if err != nil {
		return fallback
	}
	return parsed
}
