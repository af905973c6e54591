package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MongoURI string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DBName   string `env:"MONGODB_DB" envDefault:"bookreviews"`

	// JWTSecret signs bearer tokens. Loaded once at startup; rotating it
	// invalidates every outstanding token.
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// Cover storage is optional; cover uploads return 503 when the bucket
	// is unset.
	S3Bucket      string `env:"AWS_S3_BUCKET"`
	S3Region      string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`

	MaxUploadMB int64 `env:"MAX_UPLOAD_MB" envDefault:"5"`
}

// Load reads the configuration from the environment, loading a .env file
// first when one is present.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 5
	}
	return cfg, nil
}
