package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/rtsclient/internal/rpclient"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, 5*time.Millisecond, cfg.Timeouts.Poll)
	assert.Equal(t, 100, cfg.Reconnect.Attempts)
	assert.Equal(t, "ws://localhost:8080/websocket", cfg.Server.URL())
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		server ServerConfig
		want   string
	}{
		{ServerConfig{Host: "game.example.com", Secure: true}, "wss://game.example.com/websocket"},
		{ServerConfig{Host: "10.0.0.5:9000", Path: "rts"}, "ws://10.0.0.5:9000/rts"},
		{ServerConfig{Host: "h", Path: "/ws"}, "ws://h/ws"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.server.URL())
	}
}

func TestLoadMissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "rtsclient.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server, cfg.Server)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtsclient.yaml")
	content := `
server:
  host: "rts.example.com:443"
  secure: true
  codec: proto
timeouts:
  request: 2500ms
reconnect:
  attempts: 5
  delay_min: 200ms
  delay_max: 5s
heartbeat:
  interval: 20s
limits:
  send_rate: 30
  send_burst: 10
logger:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://rts.example.com:443/websocket", cfg.Server.URL())
	assert.Equal(t, "proto", cfg.Server.Codec)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeouts.Request)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Reconnect.Attempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Reconnect.DelayMin)
	assert.Equal(t, "debug", cfg.Logger.Level)

	cc := cfg.ClientConfig()
	assert.Equal(t, rpclient.Config{
		URL:               "wss://rts.example.com:443/websocket",
		ConnectTimeout:    10 * time.Second,
		RequestTimeout:    2500 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
		ReadLimit:         rpclient.DefaultReadLimit,
		ReconnectAttempts: 5,
		ReconnectDelayMin: 200 * time.Millisecond,
		ReconnectDelayMax: 5 * time.Second,
		SendRate:          30,
		SendBurst:         10,
		HeartbeatInterval: 20 * time.Second,
		HeartbeatCommand:  "PING",
	}, cc)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0600))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RTSCLIENT_HOST", "override:7000")
	t.Setenv("RTSCLIENT_SECURE", "true")
	t.Setenv("RTSCLIENT_REQUEST_TIMEOUT", "3s")
	t.Setenv("RTSCLIENT_CONNECT_TIMEOUT", "not-a-duration")
	t.Setenv("RTSCLIENT_RECONNECT_ATTEMPTS", "-1")
	t.Setenv("RTSCLIENT_LOG_LEVEL", "warn")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)
	assert.Equal(t, "wss://override:7000/websocket", cfg.Server.URL())
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, -1, cfg.Reconnect.Attempts)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Host = ""
	cfg.Server.Codec = "xml"
	cfg.Timeouts.Request = 0
	cfg.Reconnect.DelayMin = time.Second
	cfg.Reconnect.DelayMax = time.Millisecond
	cfg.Heartbeat.Interval = time.Second
	cfg.Heartbeat.Command = " "
	cfg.Logger.Level = "loud"

	err := Validate(cfg)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 6)
	assert.Contains(t, err.Error(), "server.host")
	assert.Contains(t, err.Error(), "server.codec")
	assert.Contains(t, err.Error(), "timeouts.request")
	assert.Contains(t, err.Error(), "reconnect.delay_max")
	assert.Contains(t, err.Error(), "heartbeat.command")
	assert.Contains(t, err.Error(), "logger.level")
}

func TestValidateRejectsSchemeInHost(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Host = "ws://localhost:8080"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host[:port]")
}
