package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
service_name = "pricing-test"

[database]
dsn = "root:root@tcp(localhost:3306)/test"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "pricing-test", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 100, cfg.Batch.MaxRows)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 2, cfg.Outbox.PollInterval)
}

func TestLoadReadsValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
service_name = "pricing"
environment = "prod"

[http]
port = 9090

[database]
dsn = "root:root@tcp(db:3306)/pricing"

[batch]
max_rows = 500
workers = 16
`))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 500, cfg.Batch.MaxRows)
	assert.Equal(t, 16, cfg.Batch.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "9999")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTP.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing service name",
			content: "[database]\ndsn = \"x\"\n",
			wantErr: "service_name is required",
		},
		{
			name:    "invalid http port",
			content: minimalConfig + "\n[http]\nport = 70000\n",
			wantErr: "invalid HTTP port",
		},
		{
			name:    "missing dsn",
			content: "service_name = \"pricing-test\"\n",
			wantErr: "database DSN is required",
		},
		{
			name:    "invalid batch max rows",
			content: minimalConfig + "\n[batch]\nmax_rows = -1\n",
			wantErr: "invalid batch max_rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSqliteWithoutDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
service_name = "pricing-test"

[database]
driver = "sqlite"
`))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_TEST_KEY", "from-env")

	assert.Equal(t, "from-env", GetEnv("APP_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("APP_TEST_KEY_UNSET", "fallback"))
}
