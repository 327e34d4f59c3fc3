package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	TypingTTL     time.Duration `mapstructure:"TYPING_TTL"`

	OnlineWindow time.Duration `mapstructure:"ONLINE_WINDOW"`
	StoryTTL     time.Duration `mapstructure:"STORY_TTL"`

	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL       string `mapstructure:"S3_PUBLIC_URL"`
	MediaMaxBytes     int    `mapstructure:"MEDIA_MAX_BYTES"`

	AMQPURL         string `mapstructure:"AMQP_URL"`
	AMQPExchange    string `mapstructure:"AMQP_EXCHANGE"`
	AuditRoutingKey string `mapstructure:"AUDIT_ROUTING_KEY"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `mapstructure:"SERVICE_NAME"`
	Environment  string `mapstructure:"ENVIRONMENT"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DebugRoutes  bool   `mapstructure:"DEBUG_ROUTES"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]any{
	"HTTP_PORT":                   "8083",
	"GRPC_PORT":                   "9083",
	"DATABASE_URL":                "",
	"JWT_SECRET":                  "",
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"TYPING_TTL":                  "5s",
	"ONLINE_WINDOW":               "5m",
	"STORY_TTL":                   "24h",
	"S3_ENDPOINT":                 "",
	"S3_REGION":                   "us-east-1",
	"S3_BUCKET":                   "chat-media",
	"S3_ACCESS_KEY_ID":            "",
	"S3_SECRET_ACCESS_KEY":        "",
	"S3_PUBLIC_URL":               "",
	"MEDIA_MAX_BYTES":             10 << 20,
	"AMQP_URL":                    "",
	"AMQP_EXCHANGE":               "chat.events",
	"AUDIT_ROUTING_KEY":           "audit.chat",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"SERVICE_NAME":                "chat-core",
	"ENVIRONMENT":                 "local",
	"LOG_LEVEL":                   "info",
	"DEBUG_ROUTES":                false,
	"RATE_LIMIT_RPS":              10.0,
	"RATE_LIMIT_BURST":            20,
}

// Load reads an optional .env file, overlays the process environment and validates the result.
func Load(envFile string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.HTTPPort == "":
		return errors.New("HTTP_PORT is required")
	case c.TypingTTL <= 0:
		return errors.New("TYPING_TTL must be positive")
	case c.OnlineWindow <= 0:
		return errors.New("ONLINE_WINDOW must be positive")
	case c.StoryTTL <= 0:
		return errors.New("STORY_TTL must be positive")
	case c.MediaMaxBytes <= 0:
		return errors.New("MEDIA_MAX_BYTES must be positive")
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

// MediaEnabled reports whether uploads can be sent to object storage.
func (c Config) MediaEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}
