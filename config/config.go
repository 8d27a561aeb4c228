package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Tenders  TendersConfig  `mapstructure:"tenders"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
	Phrasing PhrasingConfig `mapstructure:"phrasing"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

// TendersConfig describes the external tender feed and the refresh schedule.
// RefreshCron, when set, overrides RefreshInterval and accepts "@hourly",
// "@daily" or a standard 5-field cron expression.
type TendersConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	PageSize        int           `mapstructure:"page_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RefreshCron     string        `mapstructure:"refresh_cron"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SessionsConfig bounds the in-memory session store
type SessionsConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxContext    int           `mapstructure:"max_context"`
}

// ProfilesConfig describes the external user-profile source
type ProfilesConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PhrasingConfig configures the LLM used to wrap structured results in prose
type PhrasingConfig struct {
	Provider    string        `mapstructure:"provider"`
	Host        string        `mapstructure:"host"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RedisConfig is optional; an empty host disables the refresh lock
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c *Config) Validate() error {
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be > 0, got %s", c.Sessions.TTL)
	}
	if c.Sessions.MaxContext <= 0 {
		return fmt.Errorf("sessions.max_context must be > 0, got %d", c.Sessions.MaxContext)
	}
	if c.Tenders.RefreshInterval <= 0 && c.Tenders.RefreshCron == "" {
		return fmt.Errorf("tenders.refresh_interval must be > 0 when no refresh_cron is set")
	}
	return nil
}

// LoadConfig reads config.json (search path ./config, .) with BMAX_* env
// overrides. A missing file is tolerated; defaults and env apply.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.listen", ":8000")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("tenders.page_size", 100)
	viper.SetDefault("tenders.refresh_interval", 30*time.Minute)
	viper.SetDefault("tenders.timeout", 60*time.Second)
	viper.SetDefault("sessions.ttl", 2*time.Hour)
	viper.SetDefault("sessions.sweep_interval", 5*time.Minute)
	viper.SetDefault("sessions.max_context", 20)
	viper.SetDefault("profiles.timeout", 10*time.Second)
	viper.SetDefault("phrasing.provider", "ollama")
	viper.SetDefault("phrasing.host", "https://ollama.com")
	viper.SetDefault("phrasing.model", "llama3.1")
	viper.SetDefault("phrasing.temperature", 0.2)
	viper.SetDefault("phrasing.max_tokens", 1024)
	viper.SetDefault("phrasing.timeout", 30*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("BMAX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}
	return &cfg
}
