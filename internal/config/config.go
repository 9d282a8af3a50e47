// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("wirecrab: invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Interface string         `mapstructure:"interface"`
	Capture   CaptureConfig  `mapstructure:"capture"`
	Resolver  ResolverConfig `mapstructure:"resolver"`
	UI        UIConfig       `mapstructure:"ui"`
	Log       LogConfig      `mapstructure:"log"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Report    ReportConfig   `mapstructure:"report"`
}

// CaptureConfig configures the capture handles and loop filters.
type CaptureConfig struct {
	SnapLen     int           `mapstructure:"snaplen"`
	Promiscuous bool          `mapstructure:"promiscuous"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// PcapFile replays a capture file instead of opening Interface.
	PcapFile      string `mapstructure:"pcap_file"`
	TrafficPorts  []int  `mapstructure:"traffic_ports"`
	TrafficFilter string `mapstructure:"traffic_filter"` // empty = derived from TrafficPorts
	DNSFilter     string `mapstructure:"dns_filter"`
	Buffer        int    `mapstructure:"buffer"`
}

// ResolverConfig configures on-demand reverse lookups.
type ResolverConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Server  string        `mapstructure:"server"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	Queue   int           `mapstructure:"queue"`
}

// UIConfig configures the table refresh.
type UIConfig struct {
	Refresh time.Duration `mapstructure:"refresh"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `mapstructure:"level"`  // debug / info / warn / error
	Format string        `mapstructure:"format"` // json / text
	File   FileLogConfig `mapstructure:"file"`
}

// FileLogConfig configures the rotating log file. An empty path disables logging.
type FileLogConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
}

// ReportConfig configures the HTML report written on exit.
type ReportConfig struct {
	Path string `mapstructure:"path"`
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Interface == "" && c.Capture.PcapFile == "" {
		return fmt.Errorf("%w: an interface or a pcap file is required", ErrInvalid)
	}
	if c.Capture.SnapLen <= 0 {
		return fmt.Errorf("%w: capture.snaplen must be positive", ErrInvalid)
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("%w: capture.timeout must be positive", ErrInvalid)
	}
	if c.Capture.Buffer <= 0 {
		return fmt.Errorf("%w: capture.buffer must be positive", ErrInvalid)
	}
	if c.Capture.TrafficFilter == "" && len(c.Capture.TrafficPorts) == 0 {
		return fmt.Errorf("%w: capture.traffic_filter or capture.traffic_ports is required", ErrInvalid)
	}
	for _, p := range c.Capture.TrafficPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("%w: capture.traffic_ports: %d out of range", ErrInvalid, p)
		}
	}
	if c.Resolver.Enabled {
		if c.Resolver.Server == "" {
			return fmt.Errorf("%w: resolver.server is required", ErrInvalid)
		}
		if c.Resolver.Timeout <= 0 || c.Resolver.Workers <= 0 || c.Resolver.Queue <= 0 {
			return fmt.Errorf("%w: resolver timeout, workers and queue must be positive", ErrInvalid)
		}
	}
	if c.UI.Refresh <= 0 {
		return fmt.Errorf("%w: ui.refresh must be positive", ErrInvalid)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unsupported log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
