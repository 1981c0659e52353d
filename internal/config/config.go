package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	// External patient registry (OpenMRS-compatible REST API).
	RegistryBaseURL  string `mapstructure:"REGISTRY_BASE_URL"`
	RegistryUsername string `mapstructure:"REGISTRY_USERNAME"`
	RegistryPassword string `mapstructure:"REGISTRY_PASSWORD"`
	SyncQuery        string `mapstructure:"REGISTRY_SYNC_QUERY"`
	SyncLimit        int    `mapstructure:"REGISTRY_SYNC_LIMIT"`
	SyncMax          int    `mapstructure:"REGISTRY_SYNC_MAX"`

	// Imaging archive (Orthanc).
	OrthancURL      string `mapstructure:"ORTHANC_URL"`
	OrthancUsername string `mapstructure:"ORTHANC_USERNAME"`
	OrthancPassword string `mapstructure:"ORTHANC_PASSWORD"`

	PredictionWorkers int `mapstructure:"PREDICTION_WORKERS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("TOKEN_TTL_HOURS", 12)
	v.SetDefault("REGISTRY_SYNC_QUERY", "1000")
	v.SetDefault("REGISTRY_SYNC_LIMIT", 50)
	v.SetDefault("REGISTRY_SYNC_MAX", 200)
	v.SetDefault("ORTHANC_URL", "http://orthanc:8042")
	v.SetDefault("PREDICTION_WORKERS", 4)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("REGISTRY_BASE_URL")
	v.BindEnv("REGISTRY_USERNAME")
	v.BindEnv("REGISTRY_PASSWORD")
	v.BindEnv("REGISTRY_SYNC_QUERY")
	v.BindEnv("REGISTRY_SYNC_LIMIT")
	v.BindEnv("REGISTRY_SYNC_MAX")
	v.BindEnv("ORTHANC_URL")
	v.BindEnv("ORTHANC_USERNAME")
	v.BindEnv("ORTHANC_PASSWORD")
	v.BindEnv("PREDICTION_WORKERS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// A development server without a configured secret signs tokens with a
	// random per-process key. Every restart invalidates outstanding sessions;
	// production must configure JWT_SECRET (enforced by Validate).
	if cfg.JWTSecret == "" && cfg.IsDev() {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate development jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(buf)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. A development server
// may fall back to a generated JWT secret; anything else must set one
// explicitly so that issued tokens survive restarts.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV is %q", c.Env)
	}
	if c.PredictionWorkers < 1 {
		return fmt.Errorf("PREDICTION_WORKERS must be at least 1, got %d", c.PredictionWorkers)
	}
	if c.SyncLimit < 1 || c.SyncMax < c.SyncLimit {
		return fmt.Errorf("REGISTRY_SYNC_LIMIT/REGISTRY_SYNC_MAX are inconsistent (%d/%d)", c.SyncLimit, c.SyncMax)
	}
	return nil
}
