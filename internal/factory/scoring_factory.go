package factory

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/patterns"
	"github.com/mikey/msg-spam-filter/internal/scoring"
)

// ScoringFactory builds the scoring engine from the reference profiles and configured overrides
type ScoringFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScoringFactory creates a new scoring factory
func NewScoringFactory(cfg *config.Config, logger *zap.Logger) *ScoringFactory {
	return &ScoringFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine creates the engine for SMS and email messages
func (f *ScoringFactory) CreateEngine() (*scoring.Engine, error) {
	sms, err := f.profile(scoring.SMSProfile(), f.cfg.GetScoring("sms"))
	if err != nil {
		return nil, err
	}
	email, err := f.profile(scoring.EmailProfile(), f.cfg.GetScoring("email"))
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(sms, email, f.logger), nil
}

func (f *ScoringFactory) profile(p scoring.Profile, sc config.ScoringConfig) (scoring.Profile, error) {
	if sc.PatternPack != "" {
		set, err := patterns.LoadWithPack(sc.PatternPack)
		if err != nil {
			return p, fmt.Errorf("failed to load pattern pack: %w", err)
		}
		p.Patterns = set
		f.logger.Info("Loaded pattern pack",
			zap.String("profile", p.Name),
			zap.String("path", sc.PatternPack))
	}

	if sc.TrustedPhonePattern == "" {
		p.TrustedPhone = nil
	} else {
		re, err := regexp.Compile(sc.TrustedPhonePattern)
		if err != nil {
			return p, fmt.Errorf("invalid trusted phone pattern %q: %w", sc.TrustedPhonePattern, err)
		}
		p.TrustedPhone = re
	}

	weights := map[string]*float64{
		"spam_body":        &p.Weights.SpamBody,
		"spam_subject":     &p.Weights.SpamSubject,
		"phishing_body":    &p.Weights.PhishingBody,
		"phishing_subject": &p.Weights.PhishingSubject,
		"financial":        &p.Weights.Financial,
		"url":              &p.Weights.URL,
		"shortener":        &p.Weights.Shortener,
		"urgency":          &p.Weights.Urgency,
		"caps":             &p.Weights.Caps,
		"exclamation":      &p.Weights.Exclamation,
		"sender_flag":      &p.Weights.SenderFlag,
		"foreign_phone":    &p.Weights.ForeignPhone,
	}
	for key, value := range sc.Weights {
		if w, ok := weights[key]; ok {
			*w = value
		}
	}

	for key, value := range sc.Thresholds {
		switch key {
		case "flag_threshold":
			p.Thresholds.Flag = value
		case "suspicious_threshold":
			p.Thresholds.Suspicious = value
		case "max_confidence":
			p.Thresholds.MaxConfidence = value
		case "caps_ratio":
			p.Thresholds.CapsRatio = value
		case "max_exclamations":
			p.Thresholds.MaxExclamations = int(value)
		}
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
