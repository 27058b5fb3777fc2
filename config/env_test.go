package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultsWhenFilesMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.LoadFiles(filepath.Join(dir, "app.json"), filepath.Join(dir, ".env")))

	assert.Equal(t, "0.0.0.0", config.ServerHost())
	assert.Equal(t, 8080, config.ServerPort())
	assert.Equal(t, 950, config.ServerProcessors())
	assert.Equal(t, 0, config.ServerThrottle())
	assert.Equal(t, 60, config.ServerTimeout())
	assert.Equal(t, "", config.MapHost())
	assert.Equal(t, "/metrics", config.MetricsPath())
	assert.Equal(t, 0, config.RateLimit())
	assert.Equal(t, time.Minute, config.RateWindow())
	assert.Equal(t, "memory", config.RateStore())
	assert.False(t, config.RecoverPanics())
}

func TestDotEnvOverridesJSON(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "app.json", `{"server_port": 9000, "server_host": "127.0.0.1", "map_host": "a.example"}`)
	env := writeFile(t, dir, ".env", "# comment\nSERVER_PORT=9100\nMETRICS_PATH=off\nRATE_WINDOW='30s'\nRATE_STORE=bogus\n")

	require.NoError(t, config.LoadFiles(js, env))

	assert.Equal(t, 9100, config.ServerPort())
	assert.Equal(t, "127.0.0.1", config.ServerHost())
	assert.Equal(t, "a.example", config.MapHost())
	assert.Equal(t, "", config.MetricsPath())
	assert.Equal(t, 30*time.Second, config.RateWindow())
	assert.Equal(t, "memory", config.RateStore())
}

func TestYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "app.yaml", "server_port: 9200\nserver_throttle: 5\nmap_host: b.example\n")

	require.NoError(t, config.LoadFiles(y, filepath.Join(dir, ".env")))

	assert.Equal(t, 9200, config.ServerPort())
	assert.Equal(t, 5, config.ServerThrottle())
	assert.Equal(t, "b.example", config.MapHost())
}

func TestBadJSONIsAnError(t *testing.T) {
	dir := t.TempDir()
	js := writeFile(t, dir, "app.json", `{not json`)

	err := config.LoadFiles(js, filepath.Join(dir, ".env"))
	assert.Error(t, err)
}

func TestGetIntAndSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.LoadFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")))

	assert.Equal(t, 7, config.GetInt("UNKNOWN_KEY", 7))
	config.Set("server_processors", "3")
	assert.Equal(t, 3, config.ServerProcessors())
	config.Set("SERVER_PROCESSORS", "three")
	assert.Equal(t, 950, config.ServerProcessors())
	assert.Equal(t, "fallback", config.Get("NOT_SET", "fallback"))
}
