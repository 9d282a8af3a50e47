package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// Keys without a useful default are still registered so that
	// AutomaticEnv can override them during Unmarshal.
	v.SetDefault("interface", "")
	v.SetDefault("capture.pcap_file", "")
	v.SetDefault("capture.traffic_filter", "")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("report.path", "")
	v.SetDefault("log.file.compress", false)

	v.SetDefault("capture.snaplen", 65536)
	v.SetDefault("capture.promiscuous", true)
	v.SetDefault("capture.timeout", "500ms")
	v.SetDefault("capture.traffic_ports", []int{80, 443})
	v.SetDefault("capture.dns_filter", "udp src port 53")
	v.SetDefault("capture.buffer", 1024)

	v.SetDefault("resolver.enabled", true)
	v.SetDefault("resolver.server", "8.8.8.8:53")
	v.SetDefault("resolver.timeout", "2s")
	v.SetDefault("resolver.workers", 4)
	v.SetDefault("resolver.queue", 256)

	v.SetDefault("ui.refresh", "250ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "wirecrab.log")
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 7)

	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration from defaults, an optional YAML file, WIRECRAB_*
// environment variables and flags, in increasing precedence. flags may be nil;
// each flag is bound to the key named by its "config-key" annotation.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("wirecrab")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file does not exist: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			keys, ok := f.Annotations[FlagKeyAnnotation]
			if !ok || len(keys) == 0 || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(keys[0], f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FlagKeyAnnotation names the pflag annotation holding the config key a flag overrides.
const FlagKeyAnnotation = "config-key"

// BindFlag annotates flag name on fs with the config key it overrides.
func BindFlag(fs *pflag.FlagSet, name, key string) {
	_ = fs.SetAnnotation(name, FlagKeyAnnotation, []string{key})
}
