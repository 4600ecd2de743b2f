package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	MongoURI  string
	DBName    string
	Port      string
	JWTSecret string
}

// ConfigInstance is the global configuration instance
var ConfigInstance *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		MongoURI:  os.Getenv("MONGO_URI"),
		DBName:    os.Getenv("DB_NAME"),
		Port:      os.Getenv("PORT"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if config.MongoURI == "" {
		config.MongoURI = "mongodb://127.0.0.1:27017"
	}

	if config.DBName == "" {
		config.DBName = "studentmarktracker"
	}

	if config.Port == "" {
		config.Port = "5000"
	}

	if config.JWTSecret == "" {
		// Local development fallback; set JWT_SECRET for anything real.
		config.JWTSecret = "your-secret-key-123"
	}

	return config, nil
}
