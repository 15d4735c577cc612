package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Secrets   SecretsConfig
	Site      SiteConfig
	Mail      MailConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// StoreConfig selects the durable backend: "mongo", "sqlite" or "memory".
type StoreConfig struct {
	Driver string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SecretsConfig holds the keys for the two moderation channels and the public form.
type SecretsConfig struct {
	// ActionToken signs the stateless approve/reject links in admin emails.
	ActionToken string
	// Nonce signs purpose-bound anti-forgery nonces.
	Nonce    string
	NonceTTL time.Duration
}

type SiteConfig struct {
	Name            string
	URL             string
	AdminURL        string
	AdminEmail      string
	Categories      []string
	DefaultCategory string
}

// MailConfig selects the transport: "ses", "resend" or "log".
type MailConfig struct {
	Driver       string
	From         string
	AWSRegion    string
	ResendAPIKey string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
	// SubmissionWindow is the counter TTL for per-client submission counts.
	SubmissionWindow time.Duration
	KeyPrefix        string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("MONGODB_DATABASE", "guestpost")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("SQLITE_PATH", "guestpost.db")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("NONCE_TTL_MINUTES", 720)
	viper.SetDefault("SITE_NAME", "Guest Posts")
	viper.SetDefault("SITE_URL", "http://localhost:5001")
	viper.SetDefault("SITE_CATEGORIES", "uncategorized")
	viper.SetDefault("MAIL_DRIVER", "log")
	viper.SetDefault("MAIL_FROM", "no-reply@localhost")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("MINIO_BUCKET", "guestpost")
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_BURST", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("SUBMISSION_WINDOW_HOURS", 24)
	viper.SetDefault("SUBMISSION_KEY_PREFIX", "guestpost:submissions:")

	siteURL := strings.TrimRight(viper.GetString("SITE_URL"), "/")
	adminURL := strings.TrimRight(viper.GetString("ADMIN_URL"), "/")
	if adminURL == "" {
		adminURL = siteURL + "/admin"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  splitList(viper.GetString("CORS_ORIGINS")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(viper.GetString("STORE_DRIVER")),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Secrets: SecretsConfig{
			ActionToken: os.Getenv("ACTION_TOKEN_SECRET"),
			Nonce:       os.Getenv("NONCE_SECRET"),
			NonceTTL:    time.Duration(viper.GetInt("NONCE_TTL_MINUTES")) * time.Minute,
		},
		Site: SiteConfig{
			Name:            viper.GetString("SITE_NAME"),
			URL:             siteURL,
			AdminURL:        adminURL,
			AdminEmail:      viper.GetString("ADMIN_EMAIL"),
			Categories:      splitList(viper.GetString("SITE_CATEGORIES")),
			DefaultCategory: viper.GetString("SITE_DEFAULT_CATEGORY"),
		},
		Mail: MailConfig{
			Driver:       strings.ToLower(viper.GetString("MAIL_DRIVER")),
			From:         viper.GetString("MAIL_FROM"),
			AWSRegion:    viper.GetString("AWS_REGION"),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:          viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:         viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:              viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:            viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds:    viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			SubmissionWindow: time.Duration(viper.GetInt("SUBMISSION_WINDOW_HOURS")) * time.Hour,
			KeyPrefix:        viper.GetString("SUBMISSION_KEY_PREFIX"),
		},
	}

	// secrets fall back to the JWT secret so a single value is enough for local runs
	if cfg.Secrets.ActionToken == "" {
		cfg.Secrets.ActionToken = cfg.JWT.Secret
	}
	if cfg.Secrets.Nonce == "" {
		cfg.Secrets.Nonce = cfg.JWT.Secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}
	if err := cfg.fillEphemeralSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fillEphemeralSecrets replaces empty signing secrets with one random
// per-process value. Links and tokens signed with it stop verifying after a
// restart.
func (c *Config) fillEphemeralSecrets() error {
	if c.JWT.Secret != "" && c.Secrets.ActionToken != "" && c.Secrets.Nonce != "" {
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate signing secret: %w", err)
	}
	secret := hex.EncodeToString(buf)
	for name, v := range map[string]*string{
		"JWT_SECRET":          &c.JWT.Secret,
		"ACTION_TOKEN_SECRET": &c.Secrets.ActionToken,
		"NONCE_SECRET":        &c.Secrets.Nonce,
	} {
		if *v == "" {
			log.Printf("WARNING: %s is empty; using a random secret for this process", name)
			*v = secret
		}
	}
	return nil
}

// Validate checks the values required by the selected drivers.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("environment variable MONGODB_URI is required when STORE_DRIVER=mongo")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, sqlite or memory)", c.Store.Driver)
	}
	switch c.Mail.Driver {
	case "ses", "log":
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("environment variable RESEND_API_KEY is required when MAIL_DRIVER=resend")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q (want ses, resend or log)", c.Mail.Driver)
	}
	if c.Secrets.ActionToken == "" && c.Server.Environment == "production" {
		return fmt.Errorf("ACTION_TOKEN_SECRET (or JWT_SECRET) is required in production")
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
