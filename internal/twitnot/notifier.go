package twitnot

import "context"

// Notifier delivers a subject+body to a list of recipients. A failure
// for any recipient aborts further delivery for that call; there is no
// partial-recipient tracking at this layer.
type Notifier interface {
	Send(ctx context.Context, from string, to []string, subject, body string) error
}
