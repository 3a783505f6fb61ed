// Package config loads bankrec settings. Sources, from lowest to highest
// precedence: defaults, config file, environment (BANKREC_*, including a
// local .env file), command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/bankrec/pkg/matcher"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Matcher MatcherConfig `mapstructure:"matcher"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Workers int           `mapstructure:"workers"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Overwrite bool   `mapstructure:"overwrite"`
}

type ParserConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

type MatcherConfig struct {
	WindowDays    int `mapstructure:"window_days"`
	MaxCandidates int `mapstructure:"max_candidates"`
}

type StorageConfig struct {
	// DatabasePath enables the SQLite mirror when set.
	DatabasePath string `mapstructure:"database_path"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"output":         "output.dir",
	"overwrite":      "output.overwrite",
	"currency":       "parser.default_currency",
	"window-days":    "matcher.window_days",
	"max-candidates": "matcher.max_candidates",
	"db":             "storage.database_path",
	"addr":           "server.addr",
	"workers":        "workers",
}

func setDefaults(v *viper.Viper) {
	defaults := matcher.DefaultConfig()
	v.SetDefault("log.level", "info")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.overwrite", false)
	v.SetDefault("parser.default_currency", "EUR")
	v.SetDefault("matcher.window_days", defaults.WindowDays)
	v.SetDefault("matcher.max_candidates", defaults.MaxCandidates)
	v.SetDefault("storage.database_path", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("workers", 4)
}

// Build loads the configuration. cfgFile may be empty, in which case an
// optional bankrec.yaml in the working directory is used. flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BANKREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bankrec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Matcher.WindowDays < 0 {
		return nil, fmt.Errorf("matcher.window_days must not be negative")
	}
	return &cfg, nil
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// MatcherConfig applies the configured overrides to the matcher defaults.
func (c *Config) MatcherConfig() matcher.Config {
	mc := matcher.DefaultConfig()
	if c.Matcher.WindowDays > 0 {
		mc.WindowDays = c.Matcher.WindowDays
	}
	if c.Matcher.MaxCandidates > 0 {
		mc.MaxCandidates = c.Matcher.MaxCandidates
	}
	return mc
}
