package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"twitnot/internal/twitnot"
)

// Config represents the main configuration for twitnot.
type Config struct {
	DatabaseFile     string         `toml:"database_file"`
	LogDir           string         `toml:"log_dir"`
	ConsumerKey      string         `toml:"consumer_key"`
	ConsumerSecret   string         `toml:"consumer_secret"`
	NotificationFrom string         `toml:"notification_from"`
	NotificationTos  []string       `toml:"notification_tos"`
	Notifier         NotifierConfig `toml:"notifier"`
}

// NotifierConfig represents configuration for the notification transport.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type NotifierConfig struct {
	Type string `toml:"type"` // "command" or "smtp"

	// Command-specific field (only used when Type == "command")
	Command string `toml:"command,omitempty"`

	// SMTP-specific fields (only used when Type == "smtp")
	SMTPHost     string `toml:"smtp_host,omitempty"`
	SMTPPort     int    `toml:"smtp_port,omitempty"`
	SMTPUsername string `toml:"smtp_username,omitempty"`
	SMTPPassword string `toml:"smtp_password,omitempty"`
}

// NewConfig creates a Config with default paths under baseDir and the
// command notifier the original deployments used.
func NewConfig(baseDir string) *Config {
	return &Config{
		DatabaseFile: filepath.Join(baseDir, "twitnot.db"),
		LogDir:       filepath.Join(baseDir, "log"),
		Notifier: NotifierConfig{
			Type:    "command",
			Command: "gmail",
		},
	}
}

// Validate checks that every field the sync pipeline depends on is
// present, reporting the first missing one.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseFile == "":
		return &twitnot.ConfigError{Field: "database_file"}
	case c.ConsumerKey == "":
		return &twitnot.ConfigError{Field: "consumer_key"}
	case c.ConsumerSecret == "":
		return &twitnot.ConfigError{Field: "consumer_secret"}
	case c.NotificationFrom == "":
		return &twitnot.ConfigError{Field: "notification_from"}
	case len(c.NotificationTos) == 0:
		return &twitnot.ConfigError{Field: "notification_tos"}
	}

	switch c.Notifier.Type {
	case "command", "":
		if c.Notifier.Command == "" {
			return &twitnot.ConfigError{Field: "notifier.command"}
		}
	case "smtp":
		if c.Notifier.SMTPHost == "" {
			return &twitnot.ConfigError{Field: "notifier.smtp_host"}
		}
	default:
		return &twitnot.ConfigError{Field: "notifier.type"}
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
// Fails if a config file already exists there.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
