package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"github.com/benjaminclauss/speeddaemon/speeddaemon"
)

// Config is the configuration of the speed daemon. It is read from an optional TOML file, then overridden by
// command-line flags.
type Config struct {
	// Listen is the TCP address cameras and dispatchers connect to.
	Listen string `toml:"listen"`
	// AdminListen is the HTTP address serving build info and metrics. Empty disables it.
	AdminListen string `toml:"admin_listen"`
	// WriteTimeout bounds every write to a client.
	WriteTimeout Duration  `toml:"write_timeout"`
	Log          LogConfig `toml:"log"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

const (
	DefaultListen       = ":50006"
	DefaultWriteTimeout = speeddaemon.DefaultWriteTimeout
)

func DefaultConfig() Config {
	return Config{
		Listen:       DefaultListen,
		WriteTimeout: Duration{DefaultWriteTimeout},
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig returns the default configuration overridden by the file at path, if path is not empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

const (
	flagListen       = "listen"
	flagAdminListen  = "admin-listen"
	flagWriteTimeout = "write-timeout"
	flagLogLevel     = "log-level"
	flagLogFormat    = "log-format"
)

func registerFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.String(flagListen, def.Listen, "TCP address to accept cameras and dispatchers on")
	fs.String(flagAdminListen, def.AdminListen, "HTTP address for build info and metrics (disabled if empty)")
	fs.Duration(flagWriteTimeout, def.WriteTimeout.Duration, "timeout for each write to a client")
	fs.String(flagLogLevel, def.Log.Level, "log level: debug, info, warn or error")
	fs.String(flagLogFormat, def.Log.Format, "log format: text or json")
}

// ApplyFlags overrides cfg with the flags of fs that were set on the command line.
func (cfg *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(flagListen) {
		cfg.Listen, err = fs.GetString(flagListen)
		if err != nil {
			return err
		}
	}
	if fs.Changed(flagAdminListen) {
		cfg.AdminListen, err = fs.GetString(flagAdminListen)
		if err != nil {
			return err
		}
	}
	if fs.Changed(flagWriteTimeout) {
		cfg.WriteTimeout.Duration, err = fs.GetDuration(flagWriteTimeout)
		if err != nil {
			return err
		}
	}
	if fs.Changed(flagLogLevel) {
		cfg.Log.Level, err = fs.GetString(flagLogLevel)
		if err != nil {
			return err
		}
	}
	if fs.Changed(flagLogFormat) {
		cfg.Log.Format, err = fs.GetString(flagLogFormat)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(cfg.Listen) == "" {
		errs = append(errs, errors.New("listen must be set"))
	}
	if cfg.WriteTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("write_timeout must not be negative: %s", cfg.WriteTimeout))
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", cfg.Log.Format))
	}
	return errors.Join(errs...)
}
