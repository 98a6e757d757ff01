package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rikoimade/elabftw/pkg/settings"
)

func TestString(t *testing.T) {
	t.Run("first_key_wins", func(t *testing.T) {
		p := settings.Map{"s3_region": "eu-west-1", "aws_region": "us-east-1"}
		assert.Equal(t, "eu-west-1", settings.String(p, "asia-southeast1", "s3_region", "aws_region"))
	})

	t.Run("falls_through_to_next_key", func(t *testing.T) {
		p := settings.Map{"aws_region": "us-east-1"}
		assert.Equal(t, "us-east-1", settings.String(p, "asia-southeast1", "s3_region", "aws_region"))
	})

	t.Run("empty_value_is_unset", func(t *testing.T) {
		p := settings.Map{"s3_region": "", "aws_region": "  "}
		assert.Equal(t, "asia-southeast1", settings.String(p, "asia-southeast1", "s3_region", "aws_region"))
	})

	t.Run("value_is_returned_verbatim", func(t *testing.T) {
		p := settings.Map{"path_prefix": " uploads "}
		assert.Equal(t, " uploads ", settings.String(p, "", "path_prefix"))
	})

	t.Run("nil_provider_returns_default", func(t *testing.T) {
		assert.Equal(t, "x", settings.String(nil, "x", "anything"))
	})
}

func TestBool(t *testing.T) {
	tests := []struct {
		name     string
		provider settings.Map
		def      bool
		expected bool
	}{
		{"unset_uses_default_true", settings.Map{}, true, true},
		{"unset_uses_default_false", settings.Map{}, false, false},
		{"zero_is_false", settings.Map{"verify_cert": "0"}, true, false},
		{"one_is_true", settings.Map{"verify_cert": "1"}, false, true},
		{"word_true", settings.Map{"verify_cert": "true"}, false, true},
		{"yes_is_true", settings.Map{"verify_cert": "yes"}, false, true},
		{"off_is_false", settings.Map{"verify_cert": "off"}, true, false},
		{"garbage_uses_default", settings.Map{"verify_cert": "maybe"}, true, true},
		{"empty_uses_default", settings.Map{"verify_cert": ""}, true, true},
		{"padded_value_parses", settings.Map{"verify_cert": " false "}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, settings.Bool(tt.provider, tt.def, "verify_cert"))
		})
	}

	t.Run("skips_unparsable_key", func(t *testing.T) {
		p := settings.Map{"s3_verify_cert": "nope", "verify_cert": "false"}
		assert.False(t, settings.Bool(p, true, "s3_verify_cert", "verify_cert"))
	})
}

func TestInt(t *testing.T) {
	assert.Equal(t, 2222, settings.Int(settings.Map{"sftp_port": "2222"}, 22, "sftp_port"))
	assert.Equal(t, 22, settings.Int(settings.Map{"sftp_port": "ssh"}, 22, "sftp_port"))
	assert.Equal(t, 22, settings.Int(settings.Map{}, 22, "sftp_port"))
	assert.Equal(t, 2222, settings.Int(settings.Map{"sftp_port": " 2222\n"}, 22, "sftp_port"))
}

func TestChain(t *testing.T) {
	first := settings.Map{"bucket_name": "from-first"}
	second := settings.Map{"bucket_name": "from-second", "path_prefix": "uploads"}
	chain := settings.Chain{nil, first, second}

	v, ok := chain.Get("bucket_name")
	require.True(t, ok)
	assert.Equal(t, "from-first", v)

	v, ok = chain.Get("path_prefix")
	require.True(t, ok)
	assert.Equal(t, "uploads", v)

	_, ok = chain.Get("missing")
	assert.False(t, ok)
}

func TestOverride(t *testing.T) {
	base := settings.Map{"uploads_storage": "local", "bucket_name": "b"}
	o := settings.Override{Provider: base, Values: map[string]string{"uploads_storage": "s3"}}

	assert.Equal(t, "s3", settings.String(o, "", "uploads_storage"))
	assert.Equal(t, "b", settings.String(o, "", "bucket_name"))

	bare := settings.Override{Values: map[string]string{"a": "1"}}
	_, ok := bare.Get("b")
	assert.False(t, ok)
}

func TestEnv(t *testing.T) {
	t.Setenv("ELABTEST_BUCKET_NAME", "env-bucket")

	env := settings.Env{Prefix: "ELABTEST_"}
	v, ok := env.Get("bucket_name")
	require.True(t, ok)
	assert.Equal(t, "env-bucket", v)

	_, ok = env.Get("path_prefix")
	assert.False(t, ok)
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("loads_variables", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("ELABDOTENV_REGION=europe-west1\n"), 0600))
		t.Cleanup(func() { os.Unsetenv("ELABDOTENV_REGION") })

		require.NoError(t, settings.LoadEnvFile(envFile))
		assert.Equal(t, "europe-west1", settings.String(settings.Env{Prefix: "ELABDOTENV_"}, "", "region"))
	})

	t.Run("missing_file", func(t *testing.T) {
		err := settings.LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
		assert.Error(t, err)
	})
}
