package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// SMTP receives mail on a listening socket and turns each DATA into an EMAIL
// message. It works as a Postfix content filter endpoint or a plain sink.
type SMTP struct {
	listenAddr      string
	domain          string
	rejectFlagged   bool
	maxMessageBytes int64
	logger          *zap.Logger
	now             func() time.Time

	mu   sync.Mutex
	addr net.Addr
}

// NewSMTP creates an SMTP source
func NewSMTP(listenAddr, domain string, rejectFlagged bool, maxMessageBytes int64, logger *zap.Logger) *SMTP {
	if domain == "" {
		domain = "localhost"
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = 10 * 1024 * 1024
	}
	return &SMTP{
		listenAddr:      listenAddr,
		domain:          domain,
		rejectFlagged:   rejectFlagged,
		maxMessageBytes: maxMessageBytes,
		logger:          logger,
		now:             time.Now,
	}
}

// Name identifies the source in logs
func (s *SMTP) Name() string { return "smtp" }

// Fetch returns nothing; mail only arrives while subscribed
func (s *SMTP) Fetch(context.Context, int) ([]core.RawMessage, error) {
	return []core.RawMessage{}, nil
}

// Addr returns the bound address while subscribed
func (s *SMTP) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Subscribe starts the SMTP server; the disposer shuts it down
func (s *SMTP) Subscribe(ctx context.Context, handler core.Handler) (func(), error) {
	l, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	server := smtp.NewServer(&smtpBackend{source: s, handler: handler, ctx: context.WithoutCancel(ctx)})
	server.Domain = s.domain
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = s.maxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true

	s.mu.Lock()
	s.addr = l.Addr()
	s.mu.Unlock()

	s.logger.Info("SMTP source listening", zap.String("address", l.Addr().String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := server.Close(); err != nil {
				s.logger.Warn("Failed to close SMTP server", zap.Error(err))
			}
			<-done
			s.mu.Lock()
			s.addr = nil
			s.mu.Unlock()
			s.logger.Info("SMTP source stopped")
		})
	}, nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	source  *SMTP
	handler core.Handler
	ctx     context.Context
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{backend: b}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	backend    *smtpBackend
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the envelope sender
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data parses the message and hands it to the pipeline
func (s *smtpSession) Data(r io.Reader) error {
	src := s.backend.source

	data, err := io.ReadAll(r)
	if err != nil {
		src.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	raw, err := src.parse(data, s.sender)
	if err != nil {
		src.logger.Warn("Failed to parse email message", zap.String("sender", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	ctx, cancel := context.WithTimeout(s.backend.ctx, 30*time.Second)
	defer cancel()

	msg, err := s.backend.handler(ctx, raw)
	if err != nil {
		src.logger.Error("Failed to ingest email", zap.String("sender", raw.Address), zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary failure, try again later",
		}
	}

	if src.rejectFlagged && msg != nil && msg.Result != nil && msg.Result.IsFlagged {
		src.logger.Info("Rejecting flagged email",
			zap.String("sender", raw.Address),
			zap.String("category", string(msg.Result.Category)),
			zap.Float64("confidence", msg.Result.Confidence))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as %s", msg.Result.Category),
		}
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

func (s *SMTP) parse(data []byte, envelopeSender string) (core.RawMessage, error) {
	return ParseEmail(data, envelopeSender, s.now())
}
