package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// Config controls a hijackcat run. Precedence: defaults, config file,
// HIJACKCAT_* environment, flags.
type Config struct {
	// Delimiter ends the handshake. Go escapes such as \n are interpreted.
	Delimiter string `toml:"delimiter"`
	// MaxPrefix caps the handshake length in bytes, 0 for no cap.
	MaxPrefix int    `toml:"max_prefix"`
	NoRaw     bool   `toml:"no_raw"`
	LogLevel  string `toml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Delimiter: `\n`,
		MaxPrefix: 4096,
		LogLevel:  "info",
	}
}

// LoadConfig reads path over the defaults, then applies the environment.
// An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("HIJACKCAT_DELIMITER"); ok {
		cfg.Delimiter = v
	}
	if v, ok := os.LookupEnv("HIJACKCAT_MAX_PREFIX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HIJACKCAT_MAX_PREFIX %q: %w", v, err)
		}
		cfg.MaxPrefix = n
	}
	if v, ok := os.LookupEnv("HIJACKCAT_NO_RAW"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HIJACKCAT_NO_RAW %q: %w", v, err)
		}
		cfg.NoRaw = b
	}
	if v, ok := os.LookupEnv("HIJACKCAT_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks the config and returns the decoded delimiter and log level.
func (c Config) Validate() ([]byte, log.Level, error) {
	delim, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return nil, 0, err
	}
	if c.MaxPrefix < 0 {
		return nil, 0, fmt.Errorf("max prefix must not be negative, got %d", c.MaxPrefix)
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return delim, level, nil
}

func parseDelimiter(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("delimiter must not be empty")
	}
	// Anything that does not unquote cleanly is taken literally.
	if unq, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return []byte(unq), nil
	}
	return []byte(s), nil
}
