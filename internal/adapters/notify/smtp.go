package notify

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// SMTPNotifier emails an alert for each flagged message
type SMTPNotifier struct {
	address string
	helo    string
	from    string
	to      []string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewSMTPNotifier creates a notifier that relays alerts through address
func NewSMTPNotifier(address, helo, from string, to []string, timeout time.Duration, logger *zap.Logger) (*SMTPNotifier, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("smtp notifier needs at least one recipient")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SMTPNotifier{
		address: address,
		helo:    helo,
		from:    from,
		to:      to,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Notify sends the alert email
func (n *SMTPNotifier) Notify(ctx context.Context, summary core.Summary) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", n.address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(n.helo); err != nil {
		return fmt.Errorf("HELO failed: %w", err)
	}
	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(n.compose(summary))); err != nil {
		w.Close()
		return fmt.Errorf("failed to write alert: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish alert: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Debug("QUIT failed", zap.Error(err))
	}

	n.logger.Debug("Alert emailed",
		zap.String("id", summary.MessageID),
		zap.Strings("to", n.to))
	return nil
}

func (n *SMTPNotifier) compose(summary core.Summary) string {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k + ": " + v + "\r\n")
	}

	header("From", n.from)
	header("To", strings.Join(n.to, ", "))
	header("Subject", fmt.Sprintf("[msg-spam-filter] %s from %s", summary.Category, oneLine(summary.Sender)))
	header("Date", n.now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@msg-spam-filter>", uuid.NewString()))
	header("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "A message was flagged as %s (confidence %.2f).\r\n\r\n", summary.Category, summary.Confidence)
	fmt.Fprintf(&b, "Message ID: %s\r\n", summary.MessageID)
	fmt.Fprintf(&b, "Sender: %s\r\n", oneLine(summary.Sender))
	fmt.Fprintf(&b, "Excerpt: %s\r\n", oneLine(summary.Excerpt))

	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
