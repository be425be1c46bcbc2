package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Env           string
	Port          string
	SiteURL       string
	DatabaseURL   string
	SessionSecret string
	CORSOrigin    string
	LogLevel      string
	LogJSON       bool
	SeedData      bool

	Stripe StripeConfig
	LLM    LLMConfig
	S3     S3Config
	Google GoogleConfig
}

type StripeConfig struct {
	SecretKey     string
	PriceID       string
	WebhookSecret string
}

// Enabled reports whether billing endpoints should be mounted.
func (c StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

type LLMConfig struct {
	BaseURL string
	Token   string
	Model   string
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// keys that must be present when APP_ENV=production
var requiredInProduction = []string{
	"DATABASE_URL",
	"SESSION_SECRET",
	"STRIPE_SECRET_KEY",
	"STRIPE_PRICE_ID",
	"STRIPE_WEBHOOK_SECRET",
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Env:           get("APP_ENV", "development"),
		Port:          get("PORT", "5000"),
		SiteURL:       get("SITE_URL", "http://localhost:5000"),
		DatabaseURL:   get("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=codeloom port=5432 sslmode=disable"),
		SessionSecret: get("SESSION_SECRET", "secret_key_change_me"),
		CORSOrigin:    get("CORS_ORIGIN", "*"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogJSON:       parseBool(get("LOG_JSON", "")),
		SeedData:      parseBool(get("SEED_DATA", "")),
		Stripe: StripeConfig{
			SecretKey:     get("STRIPE_SECRET_KEY", ""),
			PriceID:       get("STRIPE_PRICE_ID", ""),
			WebhookSecret: get("STRIPE_WEBHOOK_SECRET", ""),
		},
		LLM: LLMConfig{
			BaseURL: get("LLM_BASE_URL", "https://api.openai.com/v1"),
			Token:   get("LLM_TOKEN", getenv("OPENAI_API_KEY")),
			Model:   get("LLM_MODEL", "gpt-4o-mini"),
		},
		S3: S3Config{
			Bucket:    get("S3_BUCKET", ""),
			Region:    get("S3_REGION", "auto"),
			Endpoint:  strings.TrimSuffix(get("S3_ENDPOINT", ""), "/"),
			AccessKey: get("S3_ACCESS_KEY", ""),
			SecretKey: get("S3_SECRET_KEY", ""),
			PublicURL: strings.TrimSuffix(get("S3_PUBLIC_URL", ""), "/"),
		},
		Google: GoogleConfig{
			ClientID:     get("GOOGLE_CLIENT_ID", ""),
			ClientSecret: get("GOOGLE_CLIENT_SECRET", ""),
		},
	}

	if cfg.IsProduction() {
		var missing []string
		for _, key := range requiredInProduction {
			if strings.TrimSpace(getenv(key)) == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return nil, errors.NotValidf("environment: missing %s", strings.Join(missing, ", "))
		}
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
