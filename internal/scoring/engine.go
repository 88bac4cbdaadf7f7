package scoring

import (
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// Engine picks the scorer for a message's source and classifies the result
type Engine struct {
	sms    *Scorer
	email  *Scorer
	logger *zap.Logger
}

// NewEngine creates an engine from the SMS and email profiles
func NewEngine(sms, email Profile, logger *zap.Logger) *Engine {
	return &Engine{
		sms:    NewScorer(sms),
		email:  NewScorer(email),
		logger: logger,
	}
}

// ScorerFor returns the scorer used for a source. Unknown sources use SMS.
func (e *Engine) ScorerFor(source core.Source) *Scorer {
	if source == core.SourceEmail {
		return e.email
	}
	return e.sms
}

// Analyze implements core.Analyzer
func (e *Engine) Analyze(msg *core.Message) (core.Scores, core.DetectionResult) {
	if msg == nil {
		return core.Scores{}, Classify(core.Scores{}, e.sms.profile.Thresholds)
	}

	scorer := e.ScorerFor(msg.Source)
	scores := scorer.ScoreMessage(msg)
	return scores, Classify(scores, scorer.profile.Thresholds)
}

// Explain scores a message and returns every contributing signal
func (e *Engine) Explain(msg *core.Message) (Breakdown, core.DetectionResult) {
	if msg == nil {
		return Breakdown{}, Classify(core.Scores{}, e.sms.profile.Thresholds)
	}

	scorer := e.ScorerFor(msg.Source)
	b := scorer.Score(Input{Sender: msg.Sender, Subject: msg.Subject, Body: msg.Body})
	result := Classify(b.Scores, scorer.profile.Thresholds)

	if e.logger != nil {
		e.logger.Debug("Message explained",
			zap.String("profile", scorer.profile.Name),
			zap.Int("signals", len(b.Signals)),
			zap.String("category", string(result.Category)))
	}

	return b, result
}
