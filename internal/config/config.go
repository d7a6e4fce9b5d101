// Package config loads server configuration from the environment via viper.
// All keys are prefixed PINMAP_, e.g. PINMAP_PORT=8080.
package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Host        string `mapstructure:"HOST"`
	Port        int    `mapstructure:"PORT"`
	DBPath      string `mapstructure:"DB_PATH"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	TemplateDir string `mapstructure:"TEMPLATE_DIR"`
	StaticDir   string `mapstructure:"STATIC_DIR"`
}

// New reads the environment and returns the config. JWT_SECRET has no
// default on purpose — the caller decides whether an empty secret is fatal.
func New() (*Config, error) {
	viper.SetEnvPrefix("PINMAP")

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_PATH", "data/pinmap.db")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("TEMPLATE_DIR", "web/templates")
	viper.SetDefault("STATIC_DIR", "web/static")

	envs := []string{"HOST", "PORT", "DB_PATH", "JWT_SECRET", "TEMPLATE_DIR", "STATIC_DIR"}
	for _, key := range envs {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
