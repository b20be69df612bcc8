// Package config loads server and CLI settings from a YAML or JSON file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing file is not an error.
const DefaultPath = "quire.yaml"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds every setting a command may need.
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	Addr      string        `mapstructure:"addr"`
	Metrics   bool          `mapstructure:"metrics"`
	Documents string        `mapstructure:"documents"`
	BaseDir   string        `mapstructure:"base_dir"`
	Compress  bool          `mapstructure:"compress"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	Store     Store         `mapstructure:"store"`
}

// Store selects and configures the document store.
type Store struct {
	Kind  string `mapstructure:"kind"`
	Dir   string `mapstructure:"dir"`
	Redis Redis  `mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key sealing stored descriptions.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still decrypt descriptions sealed before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// Redact lists key patterns masked before descriptions are stored.
	Redact []string `mapstructure:"redact"`
}

// Redis configures the Redis store and lock.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel: "info",
		Addr:     ":8080",
		Compress: true,
		LockTTL:  30 * time.Second,
		Store: Store{
			Kind:  StoreMemory,
			Dir:   ".quire/documents",
			Redis: Redis{Addr: "localhost:6379"},
		},
	}
}

// Load reads path over the defaults. The format follows the extension;
// anything other than .json is parsed as YAML. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.LockTTL < 0 || c.Store.Redis.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Store.EncryptionKey == "" && len(c.Store.FallbackKeys) > 0 {
		return fmt.Errorf("fallback keys need an encryption key")
	}
	if c.Store.EncryptionKey != "" {
		for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
			if _, err := DecodeKey(k); err != nil {
				return err
			}
		}
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
	}
	return nil
}

// DecodeKey decodes a base64 encryption key and checks its length.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
