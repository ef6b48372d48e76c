package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig
	Server   ServerConfig
	OCR      OCRConfig
	Vision   VisionConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	InboxDir string
	Rules    string
	LogLevel string
}

// StoreConfig holds receipt and job persistence configuration
type StoreConfig struct {
	Driver          string // postgres | sqlite | mongo
	DSN             string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	JobsDBPath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// OCRConfig holds offline OCR configuration
type OCRConfig struct {
	Engine        string // exec | gosseract
	TesseractPath string
	Language      string
	TessdataDir   string
	Preprocess    bool
}

// VisionConfig holds cloud OCR configuration
type VisionConfig struct {
	APIKey  string
	Timeout time.Duration
}

// LLMConfig holds structured-extraction configuration
type LLMConfig struct {
	Provider    string // openai | gemini | none
	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string
	GeminiKey   string
	GeminiModel string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds worker and escalation limits
type PipelineConfig struct {
	Workers          int
	QueueSize        int
	MaxExternalCalls int
	ProcessTimeout   time.Duration
	FuzzyThreshold   float64
}

// LoadConfig loads configuration from an optional .env file and the environment
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			DSN:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "./data/receipts.db"),
			MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase:   getEnv("MONGO_DATABASE", "receipts"),
			JobsDBPath:      getEnv("JOBS_DB_PATH", "./data/jobs.bolt"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			Engine:        strings.ToLower(getEnv("OCR_ENGINE", "exec")),
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
			Language:      getEnv("OCR_LANG", "tur+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			Preprocess:    getEnvAsBool("OCR_PREPROCESS", true),
		},
		Vision: VisionConfig{
			APIKey:  getEnv("VISION_API_KEY", ""),
			Timeout: getEnvAsDuration("CLOUD_OCR_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GeminiKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel: getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:          getEnvAsInt("WORKERS", 4),
			QueueSize:        getEnvAsInt("QUEUE_SIZE", 100),
			MaxExternalCalls: getEnvAsInt("MAX_EXTERNAL_CALLS", 2),
			ProcessTimeout:   getEnvAsDuration("PROCESS_TIMEOUT", 2*time.Minute),
			FuzzyThreshold:   getEnvAsFloat("FUZZY_THRESHOLD", 0.2),
		},
		InboxDir: getEnv("INBOX_DIR", ""),
		Rules:    getEnv("RECEIPT_RULES", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("STORE_DRIVER", c.Store.Driver, OneOf("postgres", "sqlite", "mongo")).
		Field("OCR_ENGINE", c.OCR.Engine, OneOf("exec", "gosseract")).
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf("openai", "gemini", "none")).
		Field("OCR_LANG", c.OCR.Language, Required).
		Field("WORKERS", c.Pipeline.Workers, Positive).
		Field("QUEUE_SIZE", c.Pipeline.QueueSize, Positive).
		Field("MAX_EXTERNAL_CALLS", c.Pipeline.MaxExternalCalls, Positive)

	if c.Store.Driver == "postgres" {
		v.Field("DATABASE_URL", c.Store.DSN, Required)
	}
	if c.Pipeline.FuzzyThreshold <= 0 || c.Pipeline.FuzzyThreshold > 1 {
		v.Field("FUZZY_THRESHOLD", c.Pipeline.FuzzyThreshold, func(name string, value interface{}) *ValidationError {
			return &ValidationError{Field: name, Value: value, Message: "must be in (0,1]"}
		})
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// EscalationEnabled reports whether both cloud OCR and an LLM provider are configured.
func (c *Config) EscalationEnabled() bool {
	if c.Vision.APIKey == "" {
		return false
	}
	switch c.LLM.Provider {
	case "openai":
		return c.LLM.OpenAIKey != ""
	case "gemini":
		return c.LLM.GeminiKey != ""
	}
	return false
}
