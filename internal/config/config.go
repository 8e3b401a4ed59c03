package config

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const devJWTSecret = "fallback-secret-key-for-dev-only"

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth. Tokens are issued by the identity service; this API only
	// verifies them.
	JWTSecret      string
	PipelineAPIKey string

	// Alert events
	AMQPURL      string
	AMQPExchange string

	// Path to the optional engine tunables file.
	EngineConfigPath string
	Engine           EngineConfig
}

// Load reads configuration from the environment (and .env when present)
// and decodes the engine tunables file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "budgetpace"),
		DBPassword: getEnv("DB_PASSWORD", "budgetpace"),
		DBName:     getEnv("DB_NAME", "budgetpace"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget.alerts"),

		EngineConfigPath: os.Getenv("ENGINE_CONFIG"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	engine, err := LoadEngine(cfg.EngineConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Engine = engine

	return cfg, nil
}

// validate refuses to start production with development credentials.
func (c *Config) validate() error {
	if c.Env != "production" {
		return nil
	}
	if c.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.DBSSLMode == "disable" && c.DBHost != "localhost" {
		log.Println("Warning: database TLS is disabled for a remote host")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
