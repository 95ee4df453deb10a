package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	TokenTTL           time.Duration
	VerifyCodeTTL      time.Duration
	VerifyCodeCooldown time.Duration
	AlertChannelBase   string
	MaxPetsPerUser     int
	CORSOrigins        string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PEIBAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Peiban API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("verify_code.ttl", "5m")
	v.SetDefault("verify_code.cooldown", "60s")
	v.SetDefault("alert.channel_base", "peiban:alerts")
	v.SetDefault("pets.max_per_user", 3)
	v.SetDefault("cors.origins", "*")

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	codeTTL, err := time.ParseDuration(v.GetString("verify_code.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid verification code ttl: %w", err)
	}

	cooldown, err := time.ParseDuration(v.GetString("verify_code.cooldown"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid verification code cooldown: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		TokenTTL:           tokenTTL,
		VerifyCodeTTL:      codeTTL,
		VerifyCodeCooldown: cooldown,
		AlertChannelBase:   v.GetString("alert.channel_base"),
		MaxPetsPerUser:     v.GetInt("pets.max_per_user"),
		CORSOrigins:        v.GetString("cors.origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxPetsPerUser <= 0 {
		cfg.MaxPetsPerUser = 3
	}

	return cfg, nil
}
