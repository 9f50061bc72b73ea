package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dinesync/dinesync/internal/realtime"
)

type Config struct {
	Mode string `mapstructure:"mode"`

	// Realtime client settings.
	RealtimeURL  string        `mapstructure:"realtime_url"`
	RealtimeHost string        `mapstructure:"realtime_host"`
	RealtimePort int           `mapstructure:"realtime_port"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`

	// Dev server settings.
	ServePort int    `mapstructure:"serve_port"`
	Secret    string `mapstructure:"secret"`
}

// Load reads config/config.<env>.yaml (env from CONFIG_ENV, default dev),
// with DINESYNC_* environment variables and defaults underneath. A missing
// file is fine, the defaults carry a local setup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("DINESYNC")
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("realtime_url", "")
	v.SetDefault("realtime_host", "localhost")
	v.SetDefault("realtime_port", realtime.DefaultPort)
	v.SetDefault("max_attempts", 5)
	v.SetDefault("retry_delay", "2s")
	v.SetDefault("dial_timeout", "10s")
	v.SetDefault("serve_port", realtime.DefaultPort)
	v.SetDefault("secret", "dinesync-dev")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).
			Msg("config file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Endpoint resolves the realtime endpoint for this config.
func (c *Config) Endpoint() string {
	return realtime.ResolveEndpoint(c.RealtimeURL, c.RealtimeHost, c.RealtimePort)
}

// ClientOptions maps the config onto realtime client options.
func (c *Config) ClientOptions() realtime.Options {
	return realtime.Options{
		URL:         c.Endpoint(),
		MaxAttempts: c.MaxAttempts,
		RetryDelay:  c.RetryDelay,
		DialTimeout: c.DialTimeout,
	}
}
