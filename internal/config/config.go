// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all addressbook configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Books   Books   `yaml:"books"`
	Log     Log     `yaml:"log"`
	Output  Output  `yaml:"output"`
}

// Storage holds where and how the directory is persisted.
type Storage struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // codec name: json, yaml, csv, xlsx, text, binary, sqlite
	Name   string `yaml:"name"`   // file stem; extension comes from the format
}

// Books holds book naming settings.
type Books struct {
	NamePolicy string `yaml:"name_policy"` // "strict" | "permissive"
}

// Log holds logger settings.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Output holds terminal output settings.
type Output struct {
	Plain bool `yaml:"plain"` // Never render styled tables, even on a TTY
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: Storage{
			Dir:    ".addressbook",
			Format: "json",
			Name:   "addressbook",
		},
		Books: Books{
			NamePolicy: "strict",
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
// Whether storage.format names a registered codec is checked by the caller.
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return errors.New("config: storage.dir cannot be empty")
	}
	if c.Storage.Format == "" {
		return errors.New("config: storage.format cannot be empty")
	}
	if c.Storage.Name == "" {
		return errors.New("config: storage.name cannot be empty")
	}
	switch c.Books.NamePolicy {
	case "", "strict", "permissive":
		// valid
	default:
		return fmt.Errorf("config: books.name_policy must be \"strict\" or \"permissive\", got %q", c.Books.NamePolicy)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ADDRESSBOOK_DIR, ADDRESSBOOK_FORMAT, ADDRESSBOOK_LOG_LEVEL,
// ADDRESSBOOK_PLAIN.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ADDRESSBOOK_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("ADDRESSBOOK_FORMAT"); v != "" {
		c.Storage.Format = v
	}
	if v := os.Getenv("ADDRESSBOOK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ADDRESSBOOK_PLAIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid ADDRESSBOOK_PLAIN %q: %w", v, err)
		}
		c.Output.Plain = b
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Storage *rawStorage `yaml:"storage"`
	Books   *rawBooks   `yaml:"books"`
	Log     *rawLog     `yaml:"log"`
	Output  *rawOutput  `yaml:"output"`
}

type rawStorage struct {
	Dir    *string `yaml:"dir"`
	Format *string `yaml:"format"`
	Name   *string `yaml:"name"`
}

type rawBooks struct {
	NamePolicy *string `yaml:"name_policy"`
}

type rawLog struct {
	Level       *string `yaml:"level"`
	Development *bool   `yaml:"development"`
}

type rawOutput struct {
	Plain *bool `yaml:"plain"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if s := layer.Storage; s != nil {
		setString(&c.Storage.Dir, s.Dir)
		setString(&c.Storage.Format, s.Format)
		setString(&c.Storage.Name, s.Name)
	}
	if layer.Books != nil {
		setString(&c.Books.NamePolicy, layer.Books.NamePolicy)
	}
	if l := layer.Log; l != nil {
		setString(&c.Log.Level, l.Level)
		if l.Development != nil {
			c.Log.Development = *l.Development
		}
	}
	if layer.Output != nil && layer.Output.Plain != nil {
		c.Output.Plain = *layer.Output.Plain
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
