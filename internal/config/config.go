// Package config загружает настройки клиента: YAML-файл поверх Defaults(),
// затем переменные окружения RTSCLIENT_*, затем Validate.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/EgorLis/rtsclient/internal/rpclient"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Limits    LimitsConfig    `yaml:"limits"`
	Logger    LoggerConfig    `yaml:"logger"`
}

type ServerConfig struct {
	Host   string `yaml:"host"` // host[:port]
	Path   string `yaml:"path"`
	Secure bool   `yaml:"secure"` // wss
	Codec  string `yaml:"codec"`  // json | proto
}

type TimeoutsConfig struct {
	Connect time.Duration `yaml:"connect"`
	Request time.Duration `yaml:"request"`
	Write   time.Duration `yaml:"write"`
	Poll    time.Duration `yaml:"poll"`
}

type ReconnectConfig struct {
	Attempts int           `yaml:"attempts"` // < 0 отключает переподключение
	DelayMin time.Duration `yaml:"delay_min"`
	DelayMax time.Duration `yaml:"delay_max"`
}

type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 выключает
	Idle     time.Duration `yaml:"idle"`
	Command  string        `yaml:"command"`
}

type LimitsConfig struct {
	SendRate  float64 `yaml:"send_rate"` // кадров/с, 0 без ограничения
	SendBurst int     `yaml:"send_burst"`
	ReadLimit int64   `yaml:"read_limit"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
	Output string `yaml:"output"` // stderr | stdout | путь к файлу
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:  "localhost:8080",
			Path:  rpclient.DefaultPath,
			Codec: "json",
		},
		Timeouts: TimeoutsConfig{
			Connect: rpclient.DefaultConnectTimeout,
			Request: rpclient.DefaultRequestTimeout,
			Write:   rpclient.DefaultWriteTimeout,
			Poll:    rpclient.DefaultPollInterval,
		},
		Reconnect: ReconnectConfig{
			Attempts: rpclient.DefaultReconnectAttempts,
		},
		Heartbeat: HeartbeatConfig{
			Command: "PING",
		},
		Limits: LimitsConfig{
			ReadLimit: rpclient.DefaultReadLimit,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// URL собирает адрес ws/wss по host и path.
func (s ServerConfig) URL() string {
	scheme := "ws"
	if s.Secure {
		scheme = "wss"
	}
	path := s.Path
	if path == "" {
		path = rpclient.DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: scheme, Host: s.Host, Path: path}
	return u.String()
}

// ClientConfig переводит настройки в rpclient.Config.
func (c *Config) ClientConfig() rpclient.Config {
	return rpclient.Config{
		URL:               c.Server.URL(),
		ConnectTimeout:    c.Timeouts.Connect,
		RequestTimeout:    c.Timeouts.Request,
		PollInterval:      c.Timeouts.Poll,
		WriteTimeout:      c.Timeouts.Write,
		ReadLimit:         c.Limits.ReadLimit,
		ReconnectAttempts: c.Reconnect.Attempts,
		ReconnectDelayMin: c.Reconnect.DelayMin,
		ReconnectDelayMax: c.Reconnect.DelayMax,
		SendRate:          c.Limits.SendRate,
		SendBurst:         c.Limits.SendBurst,
		HeartbeatInterval: c.Heartbeat.Interval,
		HeartbeatIdle:     c.Heartbeat.Idle,
		HeartbeatCommand:  c.Heartbeat.Command,
	}
}

// Load читает YAML. Если файла нет, создаёт его со значениями по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save пишет конфиг в YAML, создавая каталог при необходимости.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides применяет RTSCLIENT_* поверх файла. Неразбираемые значения пропускаются.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RTSCLIENT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RTSCLIENT_PATH"); v != "" {
		cfg.Server.Path = v
	}
	if v := os.Getenv("RTSCLIENT_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.Secure = b
		}
	}
	if v := os.Getenv("RTSCLIENT_CODEC"); v != "" {
		cfg.Server.Codec = v
	}
	if v := os.Getenv("RTSCLIENT_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeouts.Connect = d
		}
	}
	if v := os.Getenv("RTSCLIENT_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeouts.Request = d
		}
	}
	if v := os.Getenv("RTSCLIENT_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reconnect.Attempts = n
		}
	}
	if v := os.Getenv("RTSCLIENT_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("RTSCLIENT_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
}
