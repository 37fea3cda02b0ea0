package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetForTest clears name for the duration of the test and restores it after.
func unsetForTest(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func Test_parseEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv("KEUTHLIE_HTTP_ADDR", ":18080")
	t.Setenv("KEUTHLIE_MAX_OPEN_CONNS", "50")
	t.Setenv("KEUTHLIE_QUERY_TIMEOUT", "750ms")
	t.Setenv("KEUTHLIE_ALLOWED_SERVICES", "echoir, admin,,")
	t.Setenv("KEUTHLIE_LOG_BACKEND", "zap")

	cfg := defaults()
	require.NoError(t, parseEnv(cfg, []string{"-env", filepath.Join(t.TempDir(), "none.env")}))

	assert.Equal(t, ":18080", cfg.EndpointAddrHTTP)
	assert.Equal(t, 50, cfg.MaxOpenConns)
	assert.Equal(t, 750*time.Millisecond, cfg.QueryTimeout)
	assert.Equal(t, []string{"echoir", "admin"}, cfg.AllowedServices)
	assert.Equal(t, "zap", cfg.LogBackend)
}

func Test_parseEnv_DotenvFile(t *testing.T) {
	unsetForTest(t, "KEUTHLIE_ISSUER_ID")
	unsetForTest(t, "KEUTHLIE_ALLOWED_ORIGINS")
	t.Setenv("KEUTHLIE_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"KEUTHLIE_ISSUER_ID=auth-2\n"+
			"KEUTHLIE_ALLOWED_ORIGINS=https://a.example,https://b.example\n"+
			"KEUTHLIE_LOG_LEVEL=debug\n"), 0o600))

	cfg := defaults()
	require.NoError(t, parseEnv(cfg, []string{"-env", path}))

	assert.Equal(t, "auth-2", cfg.IssuerID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "error", cfg.LogLevel, "process environment wins over the file")
}

func Test_parseEnv_BadValues(t *testing.T) {
	none := []string{"-env", filepath.Join(t.TempDir(), "none.env")}

	t.Setenv("KEUTHLIE_MAX_IDLE_CONNS", "many")
	err := parseEnv(defaults(), none)
	assert.ErrorContains(t, err, "KEUTHLIE_MAX_IDLE_CONNS")

	t.Setenv("KEUTHLIE_MAX_IDLE_CONNS", "1")
	t.Setenv("KEUTHLIE_CONN_MAX_LIFETIME", "forever")
	err = parseEnv(defaults(), none)
	assert.ErrorContains(t, err, "KEUTHLIE_CONN_MAX_LIFETIME")
}

func Test_splitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,b, "))
}
