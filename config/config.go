/*
 * This file is part of the rets-mate distribution (https://github.com/mlipscombe/rets-mate).
 * Copyright (c) 2024-2026 Mark Lipscombe.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigName = "rets-mate"

// WatchConfig describes one search to poll for changes.
type WatchConfig struct {
	Resource string        `mapstructure:"resource"`
	Class    string        `mapstructure:"class"`
	Query    string        `mapstructure:"query"`
	KeyField string        `mapstructure:"key_field"`
	Interval time.Duration `mapstructure:"interval"`
	Limit    int           `mapstructure:"limit"`
	Flatten  bool          `mapstructure:"flatten"`
}

// Config holds application configuration
type Config struct {
	LogLevel          string
	Bind              string
	LoginURL          string
	Username          string
	Password          string
	UserAgent         string
	UserAgentPassword string
	RetsVersion       string
	Timeout           time.Duration
	Watches           []WatchConfig
}

// Load reads configuration from an optional rets-mate.yaml and the
// RETS_MATE_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/rets-mate")

	v.SetEnvPrefix("RETS_MATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "INFO")
	v.SetDefault("bind", "0.0.0.0:2112")
	v.SetDefault("server.login_url", "")
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")
	v.SetDefault("server.user_agent", "")
	v.SetDefault("server.user_agent_password", "")
	v.SetDefault("server.rets_version", "")
	v.SetDefault("server.timeout", "30s")

	// Config file is optional; env-only is fine.
	_ = v.ReadInConfig()

	cfg := &Config{
		LogLevel:          v.GetString("log.level"),
		Bind:              v.GetString("bind"),
		LoginURL:          strings.TrimSpace(v.GetString("server.login_url")),
		Username:          v.GetString("server.username"),
		Password:          v.GetString("server.password"),
		UserAgent:         v.GetString("server.user_agent"),
		UserAgentPassword: v.GetString("server.user_agent_password"),
		RetsVersion:       v.GetString("server.rets_version"),
		Timeout:           v.GetDuration("server.timeout"),
	}
	if err := v.UnmarshalKey("watches", &cfg.Watches); err != nil {
		return nil, fmt.Errorf("failed to parse watches: %w", err)
	}

	if cfg.LoginURL == "" {
		return nil, fmt.Errorf("server.login_url must not be empty")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid server.timeout %s", cfg.Timeout)
	}
	for i, watch := range cfg.Watches {
		if strings.TrimSpace(watch.Resource) == "" {
			return nil, fmt.Errorf("watches[%d]: resource must not be empty", i)
		}
	}

	return cfg, nil
}

// SetupLogging configures the logging level
func (cfg *Config) SetupLogging() {
	log.SetFormatter(&log.TextFormatter{})
	ll, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		ll = log.InfoLevel
	}
	log.SetLevel(ll)
}
