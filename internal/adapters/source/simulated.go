package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// sampleCorpus is the demo feed; it mixes safe, spam and phishing traffic
var sampleCorpus = []core.RawMessage{
	{Address: "+233244000111", Body: "Your package is ready for pickup at the post office, tracking ABC123", Source: core.SourceSMS},
	{Address: "PROMO", Body: "CONGRATULATIONS! You have won $50,000! Click here to claim: bit.ly/xyz", Source: core.SourceSMS},
	{Address: "+447700900123", Body: "Your account has been suspended, verify now at secure-bank-gh.com", Source: core.SourceSMS},
	{Address: "+233201234567", Body: "Hi, are we still meeting for lunch tomorrow?", Source: core.SourceSMS},
	{Address: "MTN", Body: "Dear customer, your MoMo wallet PIN code expires today. Reply with your PIN to keep your account active", Source: core.SourceSMS},
	{Address: "noreply@paypa1-security.com", Subject: "URGENT: Unusual activity on your PayPal account", Body: "Please confirm your identity at http://paypa1-security.com/login within 24 hours.", Source: core.SourceEmail},
	{Address: "team@example.org", Subject: "Minutes from Thursday", Body: "Attached are the notes from the planning session.", Source: core.SourceEmail},
	{Address: "deals@shop.example", Subject: "Exclusive deal just for you", Body: "Limited time offer: 70% discount on everything. Unsubscribe anytime.", Source: core.SourceEmail},
}

// Simulated replays a fixed corpus on a timer. It stands in for a device
// message feed during demos and tests.
type Simulated struct {
	corpus   []core.RawMessage
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	next int
}

// NewSimulated creates a simulated source over the built-in corpus
func NewSimulated(interval time.Duration, logger *zap.Logger) *Simulated {
	return NewSimulatedWithCorpus(sampleCorpus, interval, logger)
}

// NewSimulatedWithCorpus creates a simulated source over corpus
func NewSimulatedWithCorpus(corpus []core.RawMessage, interval time.Duration, logger *zap.Logger) *Simulated {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Simulated{
		corpus:   corpus,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the source in logs
func (s *Simulated) Name() string { return "simulated" }

// Fetch returns up to limit corpus entries stamped with the current time
func (s *Simulated) Fetch(ctx context.Context, limit int) ([]core.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit > len(s.corpus) {
		limit = len(s.corpus)
	}
	if limit <= 0 {
		return []core.RawMessage{}, nil
	}

	out := make([]core.RawMessage, limit)
	stamp := s.now().UnixMilli()
	for i := range out {
		out[i] = s.corpus[i]
		out[i].Timestamp = stamp
	}
	return out, nil
}

// Subscribe delivers one corpus entry per interval until the disposer is called
func (s *Simulated) Subscribe(ctx context.Context, handler core.Handler) (func(), error) {
	s.logger.Info("Simulated source started", zap.Duration("interval", s.interval))

	return runLoop(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				raw, ok := s.emit()
				if !ok {
					continue
				}
				if _, err := handler(ctx, raw); err != nil {
					s.logger.Warn("Simulated message not ingested", zap.Error(err))
				}
			case <-ctx.Done():
				s.logger.Info("Simulated source stopped")
				return
			}
		}
	}), nil
}

func (s *Simulated) emit() (core.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.corpus) == 0 {
		return core.RawMessage{}, false
	}
	raw := s.corpus[s.next%len(s.corpus)]
	raw.Timestamp = s.now().UnixMilli()
	s.next++
	return raw, true
}
