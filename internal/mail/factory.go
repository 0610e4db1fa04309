package mail

import (
	"fmt"

	"twitnot/internal/config"
	"twitnot/internal/twitnot"
)

// NewNotifierFromConfig creates a Notifier implementation based on the
// notifier config type.
func NewNotifierFromConfig(cfg config.NotifierConfig) (twitnot.Notifier, error) {
	switch cfg.Type {
	case "command", "":
		if cfg.Command == "" {
			return nil, &twitnot.ConfigError{Field: "notifier.command"}
		}
		return NewCommandNotifier(cfg.Command), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, &twitnot.ConfigError{Field: "notifier.smtp_host"}
		}
		port := cfg.SMTPPort
		if port == 0 {
			port = 587
		}
		return NewSMTPNotifier(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword, nil), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %q", cfg.Type)
	}
}
