package config

import (
	"fmt"
	"strings"

	"github.com/EgorLis/rtsclient/internal/rpclient"
)

// ValidationError собирает все найденные проблемы конфига.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

func (v *ValidationError) HasErrors() bool { return len(v.Errors) > 0 }

func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate возвращает *ValidationError со всеми ошибками сразу.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateServer(cfg, ve)
	validateTimeouts(cfg, ve)
	validateReconnect(cfg, ve)
	validateHeartbeat(cfg, ve)
	validateLimits(cfg, ve)
	validateLogger(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateServer(cfg *Config, ve *ValidationError) {
	if strings.TrimSpace(cfg.Server.Host) == "" {
		ve.Add("server.host must not be empty")
	}
	if strings.Contains(cfg.Server.Host, "://") {
		ve.Add("server.host must be host[:port], got %q", cfg.Server.Host)
	}
	if _, err := rpclient.CodecByName(cfg.Server.Codec); err != nil {
		ve.Add("server.codec: %v", err)
	}
}

func validateTimeouts(cfg *Config, ve *ValidationError) {
	if cfg.Timeouts.Connect <= 0 {
		ve.Add("timeouts.connect must be > 0")
	}
	if cfg.Timeouts.Request <= 0 {
		ve.Add("timeouts.request must be > 0")
	}
	if cfg.Timeouts.Write <= 0 {
		ve.Add("timeouts.write must be > 0")
	}
	if cfg.Timeouts.Poll <= 0 {
		ve.Add("timeouts.poll must be > 0")
	}
	if cfg.Timeouts.Poll > 0 && cfg.Timeouts.Connect > 0 && cfg.Timeouts.Poll >= cfg.Timeouts.Connect {
		ve.Add("timeouts.poll (%v) must be shorter than timeouts.connect (%v)", cfg.Timeouts.Poll, cfg.Timeouts.Connect)
	}
}

func validateReconnect(cfg *Config, ve *ValidationError) {
	if cfg.Reconnect.DelayMin < 0 || cfg.Reconnect.DelayMax < 0 {
		ve.Add("reconnect delays must be >= 0")
	}
	if cfg.Reconnect.DelayMax > 0 && cfg.Reconnect.DelayMax < cfg.Reconnect.DelayMin {
		ve.Add("reconnect.delay_max (%v) must be >= reconnect.delay_min (%v)", cfg.Reconnect.DelayMax, cfg.Reconnect.DelayMin)
	}
}

func validateHeartbeat(cfg *Config, ve *ValidationError) {
	if cfg.Heartbeat.Interval < 0 {
		ve.Add("heartbeat.interval must be >= 0")
	}
	if cfg.Heartbeat.Interval > 0 && strings.TrimSpace(cfg.Heartbeat.Command) == "" {
		ve.Add("heartbeat.command must not be empty when heartbeat is enabled")
	}
}

func validateLimits(cfg *Config, ve *ValidationError) {
	if cfg.Limits.SendRate < 0 {
		ve.Add("limits.send_rate must be >= 0")
	}
	if cfg.Limits.SendBurst < 0 {
		ve.Add("limits.send_burst must be >= 0")
	}
	if cfg.Limits.ReadLimit < 0 {
		ve.Add("limits.read_limit must be >= 0")
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is not one of debug, info, warn, error", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format %q is not one of text, json", cfg.Logger.Format)
	}
}
