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
	"gopkg.in/yaml.v3"
)

const (
	// ConfigName is the config file name without extension.
	ConfigName = ".glint"
	EnvPrefix  = "GLINT"
)

// Config represents the glint configuration
type Config struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	ValidateSSL     bool          `mapstructure:"validate_ssl" yaml:"validate_ssl"`
	Proxy           string        `mapstructure:"proxy" yaml:"proxy,omitempty"`
	// Headers are sent with every request. Names are case-insensitive and
	// arrive lowercased from config files.
	Headers     map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	RateLimit   float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	DotEnv      bool              `mapstructure:"dotenv" yaml:"dotenv"`
	SecretStore SecretStoreConfig `mapstructure:"secret_store" yaml:"secret_store"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Journal     JournalConfig     `mapstructure:"journal" yaml:"journal"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry" yaml:"telemetry"`
}

type SecretStoreConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
}

type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	Level      string `mapstructure:"level" yaml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// JournalConfig enables the SQLite request journal when Path is set.
type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure,omitempty"`
}

// Loader reads configuration through its own viper instance.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes a command line flag override key when it is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("binding %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// SearchDirs returns the directories searched for a config file.
func SearchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "glint"))
	}
	return dirs
}

// Load reads path, or searches dirs for a config file when path is empty.
// A missing search result is not an error.
func (l *Loader) Load(path string, dirs ...string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName(ConfigName)
		for _, dir := range dirs {
			l.v.AddConfigPath(dir)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max_redirects must not be negative, got %d", c.MaxRedirects)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// SaveConfig writes the configuration as YAML.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
