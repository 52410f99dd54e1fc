package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Scoring  ScoringConfig
	Grader   GraderConfig
	Speech   SpeechConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/prepify?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token validation settings. Tokens are issued by the
// external identity service; this backend only validates them.
type JWTConfig struct {
	Secret string
}

// AWSConfig holds AWS credentials and the transcript archive bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	TranscriptsBucket    string
	PresignExpireMinutes int
}

// ScoringConfig points the session orchestrator at the evaluation/summary
// endpoints. Defaults to this server's own address for single-node deploys.
type ScoringConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GraderConfig holds the OpenAI-compatible chat completions API used to
// grade answers and write closing assessments.
type GraderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// SpeechConfig holds external text-to-speech and speech-to-text providers.
// Empty endpoints disable the corresponding capability; sessions then run
// in text-only mode.
type SpeechConfig struct {
	TTSBaseURL   string
	TTSAPIKey    string
	TTSVoice     string
	STTStreamURL string
	STTAPIKey    string
	STTModel     string
	SampleRate   int
}

// SessionConfig tunes live session behavior.
type SessionConfig struct {
	TemplatesDir  string
	SpeakFallback time.Duration // onEnd fires this long after speak if the client never acks playback
	ListenWindow  time.Duration // max duration of a single listen before the capture is abandoned
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/prepify?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "prepify"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			TranscriptsBucket:    getEnv("AWS_S3_TRANSCRIPTS_BUCKET", "prepify-transcripts"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Scoring: ScoringConfig{
			BaseURL: getEnv("SCORING_BASE_URL", "http://localhost:8080"),
			Timeout: getEnvDuration("SCORING_TIMEOUT_SEC", 60) * time.Second,
		},
		Grader: GraderConfig{
			APIKey:      getEnv("GRADER_API_KEY", ""),
			BaseURL:     getEnv("GRADER_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("GRADER_MODEL", "gpt-4o"),
			Temperature: getEnvFloat("GRADER_TEMPERATURE", 0.2),
			MaxTokens:   getEnvInt("GRADER_MAX_TOKENS", 1200),
			Timeout:     getEnvDuration("GRADER_TIMEOUT_SEC", 120) * time.Second,
		},
		Speech: SpeechConfig{
			TTSBaseURL:   getEnv("TTS_BASE_URL", ""),
			TTSAPIKey:    getEnv("TTS_API_KEY", ""),
			TTSVoice:     getEnv("TTS_VOICE", "alloy"),
			STTStreamURL: getEnv("STT_STREAM_URL", ""),
			STTAPIKey:    getEnv("STT_API_KEY", ""),
			STTModel:     getEnv("STT_MODEL", "nova-2"),
			SampleRate:   getEnvInt("STT_SAMPLE_RATE", 16000),
		},
		Session: SessionConfig{
			TemplatesDir:  getEnv("QUESTION_TEMPLATES_DIR", "templates"),
			SpeakFallback: getEnvDuration("SESSION_SPEAK_FALLBACK_SEC", 30) * time.Second,
			ListenWindow:  getEnvDuration("SESSION_LISTEN_WINDOW_SEC", 120) * time.Second,
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallbackSec int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackSec))
}
