// Package config loads runtime configuration with the precedence
// flags > environment > config file > defaults. Environment variables use
// the VALIDATE_XML_ prefix (VALIDATE_XML_THREADS, VALIDATE_XML_FAIL_FAST,
// and so on).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	xmlvalidator "github.com/xmlvalid/validator"
)

// Config is the full runtime configuration of the CLI.
type Config struct {
	Threads       int           `mapstructure:"threads"`
	FailFast      bool          `mapstructure:"fail_fast"`
	Extensions    []string      `mapstructure:"extensions"`
	Include       []string      `mapstructure:"include"`
	Exclude       []string      `mapstructure:"exclude"`
	CacheDir      string        `mapstructure:"cache_dir"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	NoDiskCache   bool          `mapstructure:"no_disk_cache"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	TaskTimeout   time.Duration `mapstructure:"task_timeout"`

	Format   string `mapstructure:"format"`
	Verbose  bool   `mapstructure:"verbose"`
	Quiet    bool   `mapstructure:"quiet"`
	NoColor  bool   `mapstructure:"no_color"`
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

// flagBindings maps config keys to the CLI flags that override them.
var flagBindings = map[string]string{
	"threads":        "threads",
	"fail_fast":      "fail-fast",
	"extensions":     "extension",
	"include":        "include",
	"exclude":        "exclude",
	"cache_dir":      "cache-dir",
	"cache_ttl":      "cache-ttl",
	"no_disk_cache":  "no-disk-cache",
	"timeout":        "timeout",
	"retry_attempts": "retry-attempts",
	"format":         "format",
	"verbose":        "verbose",
	"quiet":          "quiet",
	"no_color":       "no-color",
	"log_file":       "log-file",
	"log_level":      "log-level",
}

// Load reads configuration. cfgFile, when non-empty, names an explicit
// config file and missing it is an error; otherwise validate-xml.yaml is
// searched in the working directory and the user config directory, and its
// absence is fine. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VALIDATE_XML")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("validate-xml")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "validate-xml"))
		}
	}

	if flags != nil {
		for key, flag := range flagBindings {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	def := xmlvalidator.DefaultOptions()
	v.SetDefault("threads", def.Concurrency)
	v.SetDefault("fail_fast", def.FailFast)
	v.SetDefault("extensions", def.Extensions)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("cache_ttl", def.DiskTTL)
	v.SetDefault("no_disk_cache", !def.DiskCache)
	v.SetDefault("timeout", def.FetchTimeout)
	v.SetDefault("retry_attempts", def.FetchRetries)
	v.SetDefault("task_timeout", def.TaskTimeout)
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", false)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "warn")
}

// Options translates the configuration into validator options.
func (c *Config) Options() *xmlvalidator.Options {
	opts := xmlvalidator.DefaultOptions()
	opts.Concurrency = c.Threads
	opts.FailFast = c.FailFast
	if len(c.Extensions) > 0 {
		opts.Extensions = c.Extensions
	}
	opts.IncludeGlobs = c.Include
	opts.ExcludeGlobs = c.Exclude
	if c.CacheDir != "" {
		opts.CacheDir = c.CacheDir
	}
	if c.CacheTTL > 0 {
		opts.DiskTTL = c.CacheTTL
	}
	opts.DiskCache = !c.NoDiskCache
	if c.Timeout > 0 {
		opts.FetchTimeout = c.Timeout
	}
	if c.RetryAttempts >= 0 {
		opts.FetchRetries = c.RetryAttempts
	}
	if c.TaskTimeout > 0 {
		opts.TaskTimeout = c.TaskTimeout
	}
	return opts
}
