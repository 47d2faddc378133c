package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type DatabaseConfig struct {
	URL string `envconfig:"URL" required:"true"`
}

type AuthConfig struct {
	Secret        string        `envconfig:"SECRET" required:"true"`
	AccessExpiry  time.Duration `envconfig:"ACCESS_EXPIRY" default:"30m"`
	RefreshExpiry time.Duration `envconfig:"REFRESH_EXPIRY" default:"168h"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"API_KEY"`
	BaseURL     string        `envconfig:"BASE_URL"`
	Model       string        `envconfig:"MODEL" default:"gpt-4"`
	MaxTokens   int64         `envconfig:"MAX_TOKENS" default:"2000"`
	Temperature float64       `envconfig:"TEMPERATURE" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

type QueueConfig struct {
	User string `envconfig:"USER" default:"guest"`
	Pass string `envconfig:"PASS" default:"guest"`
	Host string `envconfig:"HOST" default:"localhost"`
	Port string `envconfig:"PORT" default:"5672"`
	// Disabled skips the broker entirely; CRM sync then degrades to no-op.
	Disabled bool `envconfig:"DISABLED" default:"false"`
}

type MailConfig struct {
	Host string `envconfig:"HOST"`
	Port int    `envconfig:"PORT" default:"587"`
	User string `envconfig:"USER"`
	Pass string `envconfig:"PASS"`
	From string `envconfig:"FROM" default:"no-reply@sales-machine.local"`
}

type LogConfig struct {
	Debug  bool `envconfig:"DEBUG" default:"false"`
	Pretty bool `envconfig:"PRETTY" default:"false"`
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	OpenAI   OpenAIConfig
	Queue    QueueConfig
	Mail     MailConfig
	Log      LogConfig
}

// Load reads .env if present, then resolves every section from the
// environment. Sections are prefixed: SERVER_, DATABASE_, AUTH_, OPENAI_,
// QUEUE_, MAIL_, LOG_.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	sections := []struct {
		prefix string
		target any
	}{
		{"SERVER", &cfg.Server},
		{"DATABASE", &cfg.Database},
		{"AUTH", &cfg.Auth},
		{"OPENAI", &cfg.OpenAI},
		{"QUEUE", &cfg.Queue},
		{"MAIL", &cfg.Mail},
		{"LOG", &cfg.Log},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, fmt.Errorf("config: %s: %w", s.prefix, err)
		}
	}
	return &cfg, nil
}
