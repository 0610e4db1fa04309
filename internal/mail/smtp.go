package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"twitnot/internal/twitnot"
)

// SMTPNotifier delivers notifications over authenticated SMTP
// submission. One message per Send call, all recipients in a single
// envelope; any failure aborts the call.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	clock    twitnot.Clock
}

// NewSMTPNotifier creates an SMTPNotifier for the given submission
// endpoint. clock may be nil, in which case wall-clock time stamps the
// Date header.
func NewSMTPNotifier(host string, port int, username, password string, clock twitnot.Clock) *SMTPNotifier {
	if clock == nil {
		clock = twitnot.RealClock{}
	}
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		clock:    clock,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, from string, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(from, to, subject, body, n.clock.Now())
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	auth := smtp.PlainAuth("", n.username, n.password, n.host)

	if err := smtp.SendMail(addr, auth, from, to, msg); err != nil {
		return &twitnot.NotifyError{Recipient: strings.Join(to, ", "), Err: err}
	}
	return nil
}

// buildMessage assembles the raw RFC 5322 message. The subject is
// carried as RFC 2047 encoded words so non-ASCII text survives the
// ASCII-only header section; the body goes out as 8bit UTF-8.
func buildMessage(from string, to []string, subject, body string, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", EncodeSubject(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@twitnot>\r\n", uuid.New().String())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

var _ twitnot.Notifier = (*SMTPNotifier)(nil)
