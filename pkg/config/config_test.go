package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rikoimade/elabftw/pkg/config"
	"github.com/rikoimade/elabftw/pkg/settings"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

const validConfig = `{
    "log_level": "debug",
    "log_format": "console",
    "settings": {
        "uploads_storage": "s3",
        "bucket_name": "mylab",
        "path_prefix": "uploads",
        "use_path_style_endpoint": true,
        "verify_cert": false,
        "sftp_port": 2222
    }
}`

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, config.Validate(writeConfig(t, validConfig)))
	})

	t.Run("bad_log_level", func(t *testing.T) {
		err := config.Validate(writeConfig(t, `{"log_level": "loud"}`))
		assert.ErrorContains(t, err, "not valid")
	})

	t.Run("unknown_top_level_key", func(t *testing.T) {
		err := config.Validate(writeConfig(t, `{"bucket_name": "top-level"}`))
		assert.Error(t, err)
	})

	t.Run("nested_setting_value", func(t *testing.T) {
		err := config.Validate(writeConfig(t, `{"settings": {"bucket_name": {"nested": true}}}`))
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		err := config.Validate(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestParseConfig(t *testing.T) {
	cfg, err := config.ParseConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
	assert.Equal(t, "config", cfg.GetSettingsTable())

	assert.Equal(t, settings.Map{
		"uploads_storage":         "s3",
		"bucket_name":             "mylab",
		"path_prefix":             "uploads",
		"use_path_style_endpoint": "true",
		"verify_cert":             "false",
		"sftp_port":               "2222",
	}, cfg.InlineSettings())

	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.ParseConfig(writeConfig(t, `{}`))
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.GetLogLevel())
		assert.Equal(t, "json", cfg.GetLogFormat())
		assert.Empty(t, cfg.InlineSettings())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := config.ParseConfig(writeConfig(t, `{"log_level":`))
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestProvider(t *testing.T) {
	t.Run("environment_overrides_file", func(t *testing.T) {
		t.Setenv("ELABCFG_BUCKET_NAME", "from-env")

		cfg := &config.Config{
			EnvPrefix: "ELABCFG_",
			Settings: map[string]interface{}{
				"bucket_name": "from-file",
				"path_prefix": "uploads",
			},
		}

		p, err := cfg.Provider(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "from-env", settings.String(p, "", "bucket_name"))
		assert.Equal(t, "uploads", settings.String(p, "", "path_prefix"))
	})

	t.Run("env_file_loaded", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("ELABCFGFILE_REGION=europe-west4\n"), 0600))
		t.Cleanup(func() { os.Unsetenv("ELABCFGFILE_REGION") })

		cfg := &config.Config{EnvPrefix: "ELABCFGFILE_", EnvFile: envFile}
		p, err := cfg.Provider(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "europe-west4", settings.String(p, "", "region"))
	})

	t.Run("unreachable_database", func(t *testing.T) {
		cfg := &config.Config{SettingsDSN: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"}
		_, err := cfg.Provider(context.Background())
		assert.Error(t, err)
	})
}
