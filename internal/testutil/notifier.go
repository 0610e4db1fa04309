package testutil

import "context"

// SentMail records a single Send call.
type SentMail struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// RecordingNotifier captures every delivery instead of sending it.
type RecordingNotifier struct {
	Sent []SentMail
	Err  error
}

func (n *RecordingNotifier) Send(ctx context.Context, from string, to []string, subject, body string) error {
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentMail{From: from, To: to, Subject: subject, Body: body})
	return nil
}
