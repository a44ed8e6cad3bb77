package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://api.local:5000
auth:
  username: admin
  password: "1234"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://api.local:5000", cfg.Backend.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.Equal(t, 5*time.Second, cfg.Refresh.Interval)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "./exports", cfg.Export.Dir)
	require.Equal(t, time.Hour, cfg.Redis.TTL)
	require.Equal(t, int64(100), cfg.Redis.RecentLimit)
	require.Equal(t, "dashboard/charts", cfg.MQTT.TopicPrefix)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "Local", cfg.Display.Timezone)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://api.local
  timeout: 3s
refresh:
  interval: 750ms
auth:
  username: admin
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	require.Equal(t, 750*time.Millisecond, cfg.Refresh.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://env-backend:9000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PORT", "9090")
	path := writeConfig(t, `
backend:
  base_url: http://file-backend
auth:
  username: admin
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://env-backend:9000", cfg.Backend.BaseURL)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"relative url": `
backend:
  base_url: /api
auth: {username: a, password: b}
`,
		"missing credentials": `
backend:
  base_url: http://api
`,
		"bad qos": `
backend:
  base_url: http://api
auth: {username: a, password: b}
mqtt:
  qos: 3
`,
		"bad timezone": `
backend:
  base_url: http://api
auth: {username: a, password: b}
display:
  timezone: Mars/Olympus
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, data))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
