// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	APIKey      string
	CORSOrigins []string
	RateLimit   RateLimitConfig
	Store       StoreConfig
	LLM         LLMConfig
	Engagement  EngagementConfig
	CallbackURL string
	// GRPCHealthAddr is the listen address of the gRPC health service;
	// empty disables it.
	GRPCHealthAddr  string
	ConversationLog ConversationLogConfig
}

// RateLimitConfig bounds requests per client.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// StoreConfig selects and bounds the session store.
type StoreConfig struct {
	Driver        string
	DBPath        string
	SessionTTL    time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

// LLMConfig controls the generation backend.
type LLMConfig struct {
	GeminiAPIKey string
	Model        string
	MockMode     bool
	Timeout      time.Duration
	ReplyTimeout time.Duration
}

// EngagementConfig tunes the conversation loop.
type EngagementConfig struct {
	ShortCircuit  bool
	MinTurns      int
	MaxTurns      int
	ReportTimeout time.Duration
	RandomSeed    uint64
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		APIKey:      strings.TrimSpace(getEnv("API_KEY", "")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
			DBPath:        getEnv("DB_PATH", "./data/honeypot.db"),
			SessionTTL:    getEnvDuration("SESSION_TTL", 6*time.Hour),
			MaxSessions:   getEnvInt("SESSION_MAX", 10000),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		},
		LLM: LLMConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Model:        getEnv("GEMINI_MODEL", "gemini-flash-latest"),
			MockMode:     getEnvBool("MOCK_MODE", false),
			Timeout:      getEnvDuration("LLM_TIMEOUT", 8*time.Second),
			ReplyTimeout: getEnvDuration("LLM_REPLY_TIMEOUT", 6*time.Second),
		},
		Engagement: EngagementConfig{
			ShortCircuit:  getEnvBool("CLASSIFIER_SHORT_CIRCUIT", false),
			MinTurns:      getEnvInt("TERMINATION_MIN_TURNS", 8),
			MaxTurns:      getEnvInt("TERMINATION_MAX_TURNS", 20),
			ReportTimeout: getEnvDuration("REPORT_TIMEOUT", 5*time.Second),
			RandomSeed:    uint64(getEnvInt("RANDOM_SEED", 0)),
		},
		CallbackURL:    getEnv("CALLBACK_URL", ""),
		GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ErrMissingAPIKey is returned when API_KEY is unset.
var ErrMissingAPIKey = errors.New("API_KEY cannot be empty")

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store.Driver)
	}
	if c.Store.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Store.MaxSessions <= 0 {
		return fmt.Errorf("SESSION_MAX must be > 0")
	}
	if c.Engagement.MinTurns <= 0 || c.Engagement.MaxTurns < c.Engagement.MinTurns {
		return fmt.Errorf("TERMINATION_MIN_TURNS must be > 0 and <= TERMINATION_MAX_TURNS")
	}
	if c.LLM.Timeout <= 0 || c.LLM.ReplyTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT and LLM_REPLY_TIMEOUT must be > 0")
	}
	if c.Engagement.ReportTimeout <= 0 {
		return fmt.Errorf("REPORT_TIMEOUT must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalEnabled && c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// GenerationEnabled reports whether a live generation backend is configured.
func (c *Config) GenerationEnabled() bool {
	return !c.LLM.MockMode && c.LLM.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s") or whole seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
