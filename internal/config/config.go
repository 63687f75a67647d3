// Package config contains the configuration loading logic for the studio service.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime parameters of the studio booking service.
type Config struct {
	RunAddress          string `env:"RUN_ADDRESS"`
	DatabaseURI         string `env:"DATABASE_URI"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	AuthSecret          string `env:"AUTH_SECRET"`
	FrontendURL         string `env:"FRONTEND_URL"`
	SMTPUser            string `env:"SMTP_MAIL_USER"`
	SMTPPassword        string `env:"SMTP_MAIL_APP_PASSWORD"`
	SMTPHost            string `env:"SMTP_HOST" envDefault:"smtp.gmail.com:465"`
}

// Parse reads the configuration from command-line flags and environment
// variables. Environment variables take precedence.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envFrontendURL := cfg.FrontendURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.FrontendURL, "f", "http://localhost:5173", "frontend base URL for reset links")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envFrontendURL != "" {
		cfg.FrontendURL = envFrontendURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
