package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/utils"
)

var (
	// ErrNilMessage is returned when Ingest is called without a message
	ErrNilMessage = errors.New("message is nil")
	// ErrSourceUnavailable wraps failures of the monitoring source
	ErrSourceUnavailable = errors.New("monitoring source unavailable")
	// ErrNoSource is returned when the pipeline was built without a source
	ErrNoSource = errors.New("no monitoring source configured")
)

const (
	defaultExcerptLength = 120
	defaultReviewTimeout = 15 * time.Second
)

// SenderTrust decides whether alerts for a sender should be suppressed
type SenderTrust interface {
	IsWhitelisted(sender string) bool
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithReviewer enables advisory reviews of suspicious messages
func WithReviewer(r Reviewer) Option {
	return func(p *Pipeline) {
		p.reviewer = r
	}
}

// WithTrustedSenders suppresses notifications for trusted senders
func WithTrustedSenders(t SenderTrust) Option {
	return func(p *Pipeline) {
		p.trust = t
	}
}

// WithIDGenerator overrides how message IDs are assigned
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		p.newID = gen
	}
}

// WithClock overrides the time source used for receivedAt
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithReviewTimeout bounds each reviewer call
func WithReviewTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.reviewTimeout = d
	}
}

// Pipeline glues analysis, persistence and notification together
type Pipeline struct {
	analyzer      Analyzer
	store         MessageStore
	notifier      Notifier
	source        MonitoringSource
	textProcessor *utils.TextProcessor
	logger        *zap.Logger

	reviewer      Reviewer
	trust         SenderTrust
	newID         func() string
	now           func() time.Time
	reviewTimeout time.Duration

	seq sequencer

	mu          sync.Mutex
	monitoring  bool
	unsubscribe func()
}

// NewPipeline creates a new message pipeline
func NewPipeline(
	analyzer Analyzer,
	store MessageStore,
	notifier Notifier,
	source MonitoringSource,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		analyzer:      analyzer,
		store:         store,
		notifier:      notifier,
		source:        source,
		textProcessor: textProcessor,
		logger:        logger,
		newID:         uuid.NewString,
		now:           time.Now,
		reviewTimeout: defaultReviewTimeout,
	}
	p.seq.cond = sync.NewCond(&p.seq.mu)

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Ingest analyzes a message, persists it and notifies when it is flagged.
// Storage, review and notification failures are logged, never returned.
func (p *Pipeline) Ingest(ctx context.Context, msg *Message) (*Message, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// released even if analysis, review or storage panics
	turn := p.seq.take()
	defer turn.release()

	if msg.ID == "" {
		msg.ID = p.newID()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = p.now()
	}

	scores, result := p.analyzer.Analyze(msg)
	msg.Result = &result

	p.logger.Debug("Message analyzed",
		zap.String("id", msg.ID),
		zap.String("source", string(msg.Source)),
		zap.String("sender", msg.Sender),
		zap.Float64("spam_score", scores.Spam),
		zap.Float64("phishing_score", scores.Phishing),
		zap.Float64("financial_score", scores.Financial),
		zap.String("category", string(result.Category)),
		zap.Float64("confidence", result.Confidence))

	if p.reviewer != nil && result.Category == CategorySuspicious {
		p.review(ctx, msg)
	}

	// appends happen in ticket order so the stored history matches arrival order
	turn.wait()
	p.persist(ctx, msg)
	turn.release()

	if result.IsFlagged {
		p.notify(ctx, msg)
	}

	return msg, nil
}

// IngestRaw converts a raw source message and ingests it
func (p *Pipeline) IngestRaw(ctx context.Context, raw RawMessage) (*Message, error) {
	return p.Ingest(ctx, FromRaw(raw))
}

// BatchIngest ingests at most limit messages, in order, one at a time
func (p *Pipeline) BatchIngest(ctx context.Context, msgs []*Message, limit int) ([]*Message, error) {
	if limit <= 0 {
		return []*Message{}, nil
	}
	if limit > len(msgs) {
		limit = len(msgs)
	}

	results := make([]*Message, 0, limit)
	for _, msg := range msgs[:limit] {
		enriched, err := p.Ingest(ctx, msg)
		if err != nil {
			if errors.Is(err, ErrNilMessage) {
				p.logger.Warn("Skipping nil message in batch")
				continue
			}
			return results, err
		}
		results = append(results, enriched)
	}

	p.logger.Info("Batch ingested",
		zap.Int("requested", len(msgs)),
		zap.Int("processed", len(results)))

	return results, nil
}

// SyncFromSource pulls at most limit pending messages from the source and ingests them
func (p *Pipeline) SyncFromSource(ctx context.Context, limit int) ([]*Message, error) {
	if p.source == nil {
		return nil, ErrNoSource
	}

	raws, err := p.source.Fetch(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, p.source.Name(), err)
	}

	msgs := make([]*Message, 0, len(raws))
	for _, raw := range raws {
		msgs = append(msgs, FromRaw(raw))
	}

	return p.BatchIngest(ctx, msgs, limit)
}

// StartMonitoring subscribes to live arrivals. It is a no-op when already monitoring.
func (p *Pipeline) StartMonitoring(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.monitoring {
		return nil
	}
	if p.source == nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, ErrNoSource)
	}

	unsubscribe, err := p.source.Subscribe(ctx, p.IngestRaw)
	if err != nil {
		p.logger.Error("Failed to start monitoring",
			zap.String("source", p.source.Name()),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, p.source.Name(), err)
	}

	p.unsubscribe = unsubscribe
	p.monitoring = true
	p.logger.Info("Monitoring started", zap.String("source", p.source.Name()))

	return nil
}

// StopMonitoring cancels the live subscription. It is a no-op when not monitoring.
func (p *Pipeline) StopMonitoring() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.monitoring {
		return
	}

	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.unsubscribe = nil
	p.monitoring = false
	p.logger.Info("Monitoring stopped", zap.String("source", p.source.Name()))
}

// IsMonitoring reports whether the pipeline is subscribed to live arrivals
func (p *Pipeline) IsMonitoring() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.monitoring
}

// History returns the stored messages, newest first
func (p *Pipeline) History(ctx context.Context) ([]*Message, error) {
	return p.store.List(ctx)
}

// ClearHistory removes every stored message
func (p *Pipeline) ClearHistory(ctx context.Context) error {
	return p.store.Clear(ctx)
}

func (p *Pipeline) persist(ctx context.Context, msg *Message) {
	if p.store == nil {
		return
	}
	if err := p.store.Append(ctx, msg); err != nil {
		p.logger.Error("Failed to store message",
			zap.String("id", msg.ID),
			zap.String("sender", msg.Sender),
			zap.Error(err))
	}
}

func (p *Pipeline) notify(ctx context.Context, msg *Message) {
	if p.notifier == nil {
		return
	}
	if p.trust != nil && p.trust.IsWhitelisted(msg.Sender) {
		p.logger.Info("Skipping alert for trusted sender",
			zap.String("sender", msg.Sender),
			zap.String("category", string(msg.Result.Category)))
		return
	}

	summary := Summary{
		MessageID:  msg.ID,
		Sender:     msg.Sender,
		Category:   msg.Result.Category,
		Confidence: msg.Result.Confidence,
		Excerpt:    p.excerpt(msg),
	}
	if err := p.notifier.Notify(ctx, summary); err != nil {
		p.logger.Error("Failed to send notification",
			zap.String("id", msg.ID),
			zap.String("sender", msg.Sender),
			zap.Error(err))
	}
}

func (p *Pipeline) review(ctx context.Context, msg *Message) {
	reviewCtx, cancel := context.WithTimeout(ctx, p.reviewTimeout)
	defer cancel()

	review, err := p.reviewer.Review(reviewCtx, msg)
	if err != nil {
		p.logger.Warn("Review failed", zap.String("id", msg.ID), zap.Error(err))
		return
	}
	msg.Review = review
}

func (p *Pipeline) excerpt(msg *Message) string {
	text := msg.Body
	if text == "" {
		text = msg.Subject
	}
	if p.textProcessor == nil {
		return text
	}
	return p.textProcessor.Excerpt(text, defaultExcerptLength)
}

// FromRaw converts a raw source message into a Message. The source defaults to SMS.
func FromRaw(raw RawMessage) *Message {
	msg := &Message{
		Source:  raw.Source,
		Sender:  raw.Address,
		Subject: raw.Subject,
		Body:    raw.Body,
	}
	if msg.Source == "" {
		msg.Source = SourceSMS
	}
	if raw.Timestamp > 0 {
		msg.ReceivedAt = time.UnixMilli(raw.Timestamp)
	}
	return msg
}

// sequencer hands out tickets on arrival and lets holders proceed in ticket order
type sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func (s *sequencer) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

func (s *sequencer) wait(t uint64) {
	s.mu.Lock()
	for s.serving != t {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *sequencer) done() {
	s.mu.Lock()
	s.serving++
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *sequencer) take() *turn {
	return &turn{seq: s, ticket: s.ticket()}
}

// turn is one holder's place in the sequencer. release is safe to call
// more than once and waits for the turn first when it has not come yet.
type turn struct {
	seq      *sequencer
	ticket   uint64
	waited   bool
	released bool
}

func (t *turn) wait() {
	if t.waited {
		return
	}
	t.seq.wait(t.ticket)
	t.waited = true
}

func (t *turn) release() {
	if t.released {
		return
	}
	t.wait()
	t.seq.done()
	t.released = true
}
