package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pkgRetry "github.com/avara-hq/avara-backend/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	SynthConnectorCfg    SynthConnectorConfig    `envPrefix:"SYNTH_"`
	InsightsConnectorCfg InsightsConnectorConfig `envPrefix:"INSIGHTS_"`
	AgentsConnectorCfg   AgentsConnectorConfig   `envPrefix:"AGENTS_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Auth configuration
	AuthCfg AuthConfig `envPrefix:"AUTH_"`

	// Agent document read cache
	DocCacheTTL time.Duration `env:"DOC_CACHE_TTL" envDefault:"30s"`

	// Clarifying questions shown while research is pending (loaded from JSON file)
	ClarifyingQuestions []string

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Environment (set from flag, not from env var)
	Environment string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	// Issuer is checked when non-empty
	Issuer string `env:"ISSUER"`
}

// SynthConnectorConfig points at the synthesis service that produces
// research packs, core suggestions and downstream agent documents.
type SynthConnectorConfig struct {
	HTTPClientConfig
	ResearchEndpoint string               `env:"RESEARCH_ENDPOINT,notEmpty"`
	CoreEndpoint     string               `env:"CORE_ENDPOINT,notEmpty"`
	AgentEndpoint    string               `env:"AGENT_ENDPOINT,notEmpty"`
	ChatEndpoint     string               `env:"CHAT_ENDPOINT,notEmpty"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// InsightsConnectorConfig points at the optional intake enrichment service.
type InsightsConnectorConfig struct {
	HTTPClientConfig
	IntakeEndpoint      string               `env:"INTAKE_ENDPOINT,notEmpty"`
	ReliabilityEndpoint string               `env:"RELIABILITY_ENDPOINT,notEmpty"`
	Retry               pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// AgentsConnectorConfig points at the downstream agent APIs used for
// fire-and-forget generation triggers.
type AgentsConnectorConfig struct {
	HTTPClientConfig
	CoreBusinessURL string `env:"CORE_BUSINESS_URL,notEmpty"`
	RiskURL         string `env:"RISK_URL,notEmpty"`
	RoadmapURL      string `env:"ROADMAP_URL,notEmpty"`
	TaskURL         string `env:"TASK_URL,notEmpty"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// clarifyingQuestions represents the structure of clarifying_questions.json
type clarifyingQuestions struct {
	Questions []string `json:"questions"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Load clarifying questions from JSON file
	if err := loadClarifyingQuestions(cfg); err != nil {
		return nil, fmt.Errorf("load clarifying questions: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if cfg.DocCacheTTL < 0 || cfg.DocCacheTTL > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("DOC_CACHE_TTL must be between 0 and 10m, got %s", cfg.DocCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", fmt.Sprintf("%s", errors[0]))
	}

	return nil
}

var defaultClarifyingQuestions = []string{
	"Who feels this problem most acutely today?",
	"What are they doing right now instead of your solution?",
	"What single signal would convince you the problem is real?",
	"Which market or region do you want to win first?",
	"What is the riskiest assumption behind your solution?",
}

func loadClarifyingQuestions(cfg *Config) error {
	configDir := filepath.Join("internal", "config", "clarifying_questions.json")

	// Check if file exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		fmt.Printf("Warning: clarifying questions file not found at %s, using default questions\n", configDir)
		cfg.ClarifyingQuestions = defaultClarifyingQuestions
		return nil
	}

	data, err := os.ReadFile(configDir)
	if err != nil {
		return fmt.Errorf("read clarifying questions file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("clarifying questions file is empty: %s", configDir)
	}

	var questionsData clarifyingQuestions
	if err := json.Unmarshal(data, &questionsData); err != nil {
		return fmt.Errorf("parse clarifying questions JSON: %w", err)
	}

	if len(questionsData.Questions) == 0 {
		return fmt.Errorf("clarifying questions file contains no questions: %s", configDir)
	}

	cfg.ClarifyingQuestions = questionsData.Questions

	fmt.Printf("Loaded %d clarifying questions from %s\n", len(cfg.ClarifyingQuestions), configDir)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
