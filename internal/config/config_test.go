package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"twitnot/internal/twitnot"
)

func validConfig() *Config {
	return &Config{
		DatabaseFile:     "/data/twitnot.db",
		LogDir:           "/data/log",
		ConsumerKey:      "ck",
		ConsumerSecret:   "cs",
		NotificationFrom: "notifier@example.com",
		NotificationTos:  []string{"alice@example.com"},
		Notifier: NotifierConfig{
			Type:    "command",
			Command: "gmail",
		},
	}
}

func TestConfigRoundTrip(t *testing.T) {
	m := &Manager{}
	cfg := validConfig()
	cfg.Notifier = NotifierConfig{
		Type:         "smtp",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     465,
		SMTPUsername: "user",
		SMTPPassword: "pass",
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	if got.DatabaseFile != cfg.DatabaseFile {
		t.Errorf("DatabaseFile = %q, want %q", got.DatabaseFile, cfg.DatabaseFile)
	}
	if got.ConsumerKey != cfg.ConsumerKey || got.ConsumerSecret != cfg.ConsumerSecret {
		t.Errorf("credentials did not round-trip: %+v", got)
	}
	if len(got.NotificationTos) != 1 || got.NotificationTos[0] != "alice@example.com" {
		t.Errorf("NotificationTos = %v", got.NotificationTos)
	}
	if got.Notifier != cfg.Notifier {
		t.Errorf("Notifier = %+v, want %+v", got.Notifier, cfg.Notifier)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("/home/user/.local/share/twitnot")

	if cfg.DatabaseFile != filepath.Join("/home/user/.local/share/twitnot", "twitnot.db") {
		t.Errorf("DatabaseFile = %q", cfg.DatabaseFile)
	}
	if cfg.Notifier.Type != "command" || cfg.Notifier.Command != "gmail" {
		t.Errorf("default notifier = %+v", cfg.Notifier)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("reports the missing field", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*Config)
			field  string
		}{
			{"database file", func(c *Config) { c.DatabaseFile = "" }, "database_file"},
			{"consumer key", func(c *Config) { c.ConsumerKey = "" }, "consumer_key"},
			{"consumer secret", func(c *Config) { c.ConsumerSecret = "" }, "consumer_secret"},
			{"from address", func(c *Config) { c.NotificationFrom = "" }, "notification_from"},
			{"to addresses", func(c *Config) { c.NotificationTos = nil }, "notification_tos"},
			{"notifier command", func(c *Config) { c.Notifier.Command = "" }, "notifier.command"},
			{"smtp host", func(c *Config) { c.Notifier = NotifierConfig{Type: "smtp"} }, "notifier.smtp_host"},
			{"unknown notifier type", func(c *Config) { c.Notifier.Type = "carrier-pigeon" }, "notifier.type"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				cfg := validConfig()
				tc.mutate(cfg)

				err := cfg.Validate()
				var cerr *twitnot.ConfigError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected a ConfigError, got %v", err)
				}
				if cerr.Field != tc.field {
					t.Errorf("Field = %q, want %q", cerr.Field, tc.field)
				}
			})
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("writes a new config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "twitnot.toml")

		if err := Init(path, validConfig()); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() failed: %v", err)
		}
		if got.ConsumerKey != "ck" {
			t.Errorf("ConsumerKey = %q", got.ConsumerKey)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "twitnot.toml")
		if err := os.WriteFile(path, []byte("database_file = \"x\"\n"), 0644); err != nil {
			t.Fatalf("seeding existing file: %v", err)
		}

		if err := Init(path, validConfig()); err == nil {
			t.Error("Init() over an existing file should fail")
		}
	})
}
