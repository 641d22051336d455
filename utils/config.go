package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

type DatabaseConfig struct {
	Driver      string // mysql, postgres, sqlite
	DSN         string
	AutoMigrate bool
}

type StripeConfig struct {
	PublishableKey string
	SecretKey      string
	Currency       string
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string // sandbox, live
	Currency     string
}

// AdminConfig is only read by cmd/provision; the server never creates accounts.
type AdminConfig struct {
	Email    string
	Password string
}

// Config is resolved once at startup and passed down explicitly.
type Config struct {
	Env       string
	Port      int
	BaseURL   string
	SecretKey string
	Database  DatabaseConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Admin     AdminConfig
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// StripeEnabled reports whether card payments can be offered.
func (c *Config) StripeEnabled() bool {
	return c.Stripe.SecretKey != ""
}

func (c *Config) PayPalEnabled() bool {
	return c.PayPal.ClientID != "" && c.PayPal.ClientSecret != ""
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"server.env":             "GO_ENV",
	"server.port":            "PORT",
	"server.base_url":        "BASE_URL",
	"secret_key":             "SECRET_KEY",
	"database.driver":        "DATABASE_DRIVER",
	"database.dsn":           "DATABASE_URL",
	"database.auto_migrate":  "DATABASE_AUTO_MIGRATE",
	"stripe.publishable_key": "STRIPE_PUBLISHABLE_KEY",
	"stripe.secret_key":      "STRIPE_SECRET_KEY",
	"stripe.currency":        "STRIPE_CURRENCY",
	"paypal.client_id":       "PAYPAL_CLIENT_ID",
	"paypal.client_secret":   "PAYPAL_CLIENT_SECRET",
	"paypal.mode":            "PAYPAL_MODE",
	"paypal.currency":        "PAYPAL_CURRENCY",
	"admin.email":            "ADMIN_EMAIL",
	"admin.password":         "ADMIN_PASSWORD",
}

// LoadConfig reads .env, then config.yaml (explicit path, working directory or
// executable directory), then environment overrides.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	v := viper.New()
	v.SetDefault("server.env", "development")
	v.SetDefault("server.port", 5000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("paypal.mode", "sandbox")
	v.SetDefault("paypal.currency", "USD")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if execDir, err := filepath.Abs(filepath.Dir(os.Args[0])); err == nil {
			v.AddConfigPath(execDir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			log.Printf("No config.yaml found, using defaults and environment")
		}
	}

	cfg := &Config{
		Env:       strings.ToLower(v.GetString("server.env")),
		Port:      v.GetInt("server.port"),
		BaseURL:   strings.TrimRight(v.GetString("server.base_url"), "/"),
		SecretKey: v.GetString("secret_key"),
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("database.driver")),
			DSN:         v.GetString("database.dsn"),
			AutoMigrate: v.GetBool("database.auto_migrate"),
		},
		Stripe: StripeConfig{
			PublishableKey: v.GetString("stripe.publishable_key"),
			SecretKey:      v.GetString("stripe.secret_key"),
			Currency:       strings.ToLower(v.GetString("stripe.currency")),
		},
		PayPal: PayPalConfig{
			ClientID:     v.GetString("paypal.client_id"),
			ClientSecret: v.GetString("paypal.client_secret"),
			Mode:         strings.ToLower(v.GetString("paypal.mode")),
			Currency:     strings.ToUpper(v.GetString("paypal.currency")),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize fails fast on missing secrets in production and fills development-only values.
func (c *Config) finalize() error {
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.IsProduction() {
		var missing []string
		if c.SecretKey == "" {
			missing = append(missing, "SECRET_KEY")
		}
		if c.Database.DSN == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.Stripe.SecretKey != "" && c.Stripe.PublishableKey == "" {
			missing = append(missing, "STRIPE_PUBLISHABLE_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration in production: %s", strings.Join(missing, ", "))
		}
		return nil
	}

	if c.SecretKey == "" {
		key, err := randomHex(32)
		if err != nil {
			return err
		}
		c.SecretKey = key
		log.Printf("Warning: SECRET_KEY not set, using an ephemeral key; sessions will not survive a restart")
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "handsup.db"
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver)
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
