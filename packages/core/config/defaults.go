package config

import "time"

const (
	DefaultLogFile     = "glint.log"
	DefaultLogLevel    = "info"
	DefaultSecretStore = "op"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		FollowRedirects: true,
		MaxRedirects:    10,
		ValidateSSL:     true,
		Proxy:           "",
		Headers:         map[string]string{},
		RateLimit:       0,
		DotEnv:          true,
		SecretStore: SecretStoreConfig{
			Command: DefaultSecretStore,
		},
		Log: LogConfig{
			File:       DefaultLogFile,
			Level:      DefaultLogLevel,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaults flattens DefaultConfig into viper keys.
func defaults() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"timeout":              d.Timeout,
		"follow_redirects":     d.FollowRedirects,
		"max_redirects":        d.MaxRedirects,
		"validate_ssl":         d.ValidateSSL,
		"proxy":                d.Proxy,
		"headers":              d.Headers,
		"rate_limit":           d.RateLimit,
		"dotenv":               d.DotEnv,
		"secret_store.command": d.SecretStore.Command,
		"log.file":             d.Log.File,
		"log.level":            d.Log.Level,
		"log.max_size_mb":      d.Log.MaxSizeMB,
		"log.max_backups":      d.Log.MaxBackups,
		"journal.path":         d.Journal.Path,
		"telemetry.endpoint":   d.Telemetry.Endpoint,
		"telemetry.insecure":   d.Telemetry.Insecure,
	}
}
