package config

import (
	"context"
	"strconv"

	"github.com/rikoimade/elabftw/pkg/settings"
)

// Config is the root configuration structure
type Config struct {
	LogLevel      string                 `json:"log_level,omitempty"`      // debug, info, warn, error (default: info)
	LogFormat     string                 `json:"log_format,omitempty"`     // json, console (default: json)
	EnvPrefix     string                 `json:"env_prefix,omitempty"`     // read settings from environment variables with this prefix
	EnvFile       string                 `json:"env_file,omitempty"`       // dotenv file loaded before reading the environment
	SettingsDSN   string                 `json:"settings_dsn,omitempty"`   // PostgreSQL DSN of the settings table
	SettingsTable string                 `json:"settings_table,omitempty"` // default: config
	Settings      map[string]interface{} `json:"settings,omitempty"`       // inline settings (bucket_name, path_prefix, ...)
}

// GetLogLevel returns the log level (defaults to info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to json)
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "json"
}

// GetSettingsTable returns the settings table name (defaults to config)
func (c *Config) GetSettingsTable() string {
	if c.SettingsTable != "" {
		return c.SettingsTable
	}
	return settings.DefaultTable
}

// InlineSettings returns the settings object of the file as strings.
// Booleans become "true"/"false", numbers their shortest decimal form.
func (c *Config) InlineSettings() settings.Map {
	m := make(settings.Map, len(c.Settings))
	for k, v := range c.Settings {
		switch val := v.(type) {
		case string:
			m[k] = val
		case bool:
			m[k] = strconv.FormatBool(val)
		case float64:
			m[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return m
}

// Provider builds the settings chain: environment first, then the
// database table, then the inline settings of the file
func (c *Config) Provider(ctx context.Context) (settings.Provider, error) {
	var chain settings.Chain

	if c.EnvFile != "" {
		if err := settings.LoadEnvFile(c.EnvFile); err != nil {
			return nil, err
		}
	}
	if c.EnvPrefix != "" {
		chain = append(chain, settings.Env{Prefix: c.EnvPrefix})
	}

	if c.SettingsDSN != "" {
		m, err := settings.LoadPostgres(ctx, c.SettingsDSN, c.GetSettingsTable())
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}

	chain = append(chain, c.InlineSettings())
	return chain, nil
}
