package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Storage     StorageConfig     `yaml:"storage"`
	ResultStore ResultStoreConfig `yaml:"result_store"`
	AWS         AWSConfig         `yaml:"aws"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // postgres | sqlite
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Workers     int           `yaml:"workers"`
	HistorySize int           `yaml:"history_size"`
}

// GatewayConfig holds the OCR gateway endpoints
type GatewayConfig struct {
	UploadURL   string        `yaml:"upload_url"`
	RetrieveURL string        `yaml:"retrieve_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// StorageConfig holds object storage configuration for receipt uploads
type StorageConfig struct {
	ReceiptBucket string        `yaml:"receipt_bucket"`
	URLExpiry     time.Duration `yaml:"url_expiry"`
}

// ResultStoreConfig selects where gateway results are persisted
type ResultStoreConfig struct {
	Backend       string `yaml:"backend"` // sql | dynamodb
	DynamoDBTable string `yaml:"dynamodb_table"`
}

// AWSConfig holds AWS client configuration
type AWSConfig struct {
	Region string `yaml:"region"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:pantry.db?_pragma=foreign_keys(1)",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr: ":8000",
			GRPCAddr: ":8080",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			MaxTokens:   1024,
			Timeout:     45 * time.Second,
			Workers:     4,
			HistorySize: 20,
		},
		Gateway: GatewayConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			URLExpiry: 300 * time.Second,
		},
		ResultStore: ResultStoreConfig{
			Backend:       "sql",
			DynamoDBTable: "receipt_results",
		},
		AWS: AWSConfig{Region: "us-east-1"},
	}
}

// LoadConfig loads configuration from the optional CONFIG_FILE yaml document,
// then applies environment variables on top.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid yaml in "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("OPENAI_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.Workers = getEnvAsInt("LLM_WORKERS", c.LLM.Workers)
	c.LLM.HistorySize = getEnvAsInt("CHAT_HISTORY_SIZE", c.LLM.HistorySize)

	c.Gateway.UploadURL = getEnv("RECEIPT_UPLOAD_ENDPOINT", c.Gateway.UploadURL)
	c.Gateway.RetrieveURL = getEnv("RECEIPT_RETRIEVE_ENDPOINT", c.Gateway.RetrieveURL)
	c.Gateway.Timeout = getEnvAsDuration("RECEIPT_GATEWAY_TIMEOUT", c.Gateway.Timeout)

	c.Storage.ReceiptBucket = getEnv("RECEIPT_UPLOAD_BUCKET", c.Storage.ReceiptBucket)
	c.Storage.URLExpiry = getEnvAsDuration("RECEIPT_UPLOAD_URL_EXPIRY", c.Storage.URLExpiry)

	c.ResultStore.Backend = getEnv("RESULT_STORE", c.ResultStore.Backend)
	c.ResultStore.DynamoDBTable = getEnv("RESULT_STORE_TABLE", c.ResultStore.DynamoDBTable)

	c.AWS.Region = getEnv("AWS_REGION", c.AWS.Region)
}

// SlogLevel maps the configured level name onto a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.ResultStore.Backend {
	case "sql":
	case "dynamodb":
		if c.ResultStore.DynamoDBTable == "" {
			return NewAppError("CONFIG_ERROR", "RESULT_STORE_TABLE is required for dynamodb", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "RESULT_STORE must be sql or dynamodb", ErrInvalidInput)
	}
	return nil
}
