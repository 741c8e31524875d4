package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	MongoURI      string   `mapstructure:"MONGO_URI"`
	MongoDB       string   `mapstructure:"MONGO_DB"`
	JWTSecret     string   `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes int      `mapstructure:"JWT_TTL_MINUTES"`
	BcryptCost    int      `mapstructure:"BCRYPT_COST"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DB", "ward")
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("MONGO_URI")
	v.BindEnv("MONGO_DB")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_TTL_MINUTES")
	v.BindEnv("BCRYPT_COST")
	v.BindEnv("CORS_ORIGINS")

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

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set; using an insecure development secret")
		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret is mandatory so that bearer tokens cannot be forged.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.JWTSecret == "" || c.JWTSecret == "dev-secret-do-not-use") {
		return fmt.Errorf("JWT_SECRET must be set when ENV=%q", c.Env)
	}
	if c.JWTTTLMinutes <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive, got %d", c.JWTTTLMinutes)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}
