package mail

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"twitnot/internal/twitnot"
)

// CommandNotifier delivers notifications by invoking an external mail
// command once per recipient:
//
//	<command> send <bodyfile> --subject <subject> --to <recipient>
//
// The body is written to a temporary file first. A non-zero exit for
// any recipient aborts the remaining recipients.
type CommandNotifier struct {
	command string
}

func NewCommandNotifier(command string) *CommandNotifier {
	return &CommandNotifier{command: command}
}

func (n *CommandNotifier) Send(ctx context.Context, from string, to []string, subject, body string) error {
	_ = from // the command's own configuration determines the sender

	if len(to) == 0 {
		return nil
	}

	f, err := os.CreateTemp("", "twitnot-mail-*")
	if err != nil {
		return fmt.Errorf("creating body file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return fmt.Errorf("writing body file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing body file: %w", err)
	}

	for _, rcpt := range to {
		cmd := exec.CommandContext(ctx, n.command, "send", f.Name(), "--subject", subject, "--to", rcpt)
		if out, err := cmd.CombinedOutput(); err != nil {
			return &twitnot.NotifyError{
				Recipient: rcpt,
				Err:       fmt.Errorf("%s: %w (output: %s)", n.command, err, out),
			}
		}
	}
	return nil
}

var _ twitnot.Notifier = (*CommandNotifier)(nil)
