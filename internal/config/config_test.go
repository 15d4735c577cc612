package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "guestpost_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("SITE_URL", "https://blog.example.com/")
	t.Setenv("SITE_CATEGORIES", "news, guides ,,opinion")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Site.URL != "https://blog.example.com" || cfg.Site.AdminURL != "https://blog.example.com/admin" {
		t.Fatalf("unexpected site urls: %q %q", cfg.Site.URL, cfg.Site.AdminURL)
	}
	if len(cfg.Site.Categories) != 3 || cfg.Site.Categories[1] != "guides" {
		t.Fatalf("unexpected categories: %v", cfg.Site.Categories)
	}
	// secrets fall back to JWT_SECRET
	if cfg.Secrets.ActionToken != cfg.JWT.Secret || cfg.Secrets.Nonce != cfg.JWT.Secret {
		t.Fatalf("expected secrets to fall back to JWT secret")
	}
	if cfg.RateLimit.SubmissionWindow != 24*time.Hour {
		t.Fatalf("unexpected submission window: %v", cfg.RateLimit.SubmissionWindow)
	}
}

func TestValidateRejectsMissingMongoURI(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: "mongo"}, Mail: MailConfig{Driver: "log"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when MONGODB_URI is empty")
	}
	cfg.Store.Driver = "memory"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory driver should validate: %v", err)
	}
	cfg.Mail.Driver = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown mail driver")
	}
}

func TestLoadConfigGeneratesMissingSecrets(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SERVER_ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACTION_TOKEN_SECRET", "")
	t.Setenv("NONCE_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Secrets.ActionToken) != 64 || len(cfg.Secrets.Nonce) != 64 || len(cfg.JWT.Secret) != 64 {
		t.Fatalf("expected generated secrets, got %q %q %q", cfg.Secrets.ActionToken, cfg.Secrets.Nonce, cfg.JWT.Secret)
	}

	other, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if other.Secrets.ActionToken == cfg.Secrets.ActionToken {
		t.Fatalf("expected a fresh secret per load")
	}
}

func TestValidateRequiresActionSecretInProduction(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Environment: "production"},
		Store:  StoreConfig{Driver: "memory"},
		Mail:   MailConfig{Driver: "log"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty action secret in production")
	}
	cfg.Secrets.ActionToken = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
