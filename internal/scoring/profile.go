// Package scoring implements the rule-based spam and phishing scorer and
// the threshold classifier that turns scores into a verdict.
package scoring

import (
	"fmt"
	"regexp"

	"github.com/mikey/msg-spam-filter/internal/patterns"
)

// Field selects which part of a message a formatting check looks at
type Field string

const (
	FieldBody    Field = "body"
	FieldSubject Field = "subject"
)

// DefaultTrustedPhonePattern matches Ghanaian numbers
const DefaultTrustedPhonePattern = `^\+?233`

// Weights are the increments added per signal hit
type Weights struct {
	SpamBody        float64
	SpamSubject     float64
	PhishingBody    float64
	PhishingSubject float64
	Financial       float64
	URL             float64
	Shortener       float64
	Urgency         float64
	Caps            float64
	Exclamation     float64
	SenderFlag      float64
	ForeignPhone    float64
}

func (w Weights) named() []struct {
	name  string
	value float64
} {
	return []struct {
		name  string
		value float64
	}{
		{"spam_body", w.SpamBody},
		{"spam_subject", w.SpamSubject},
		{"phishing_body", w.PhishingBody},
		{"phishing_subject", w.PhishingSubject},
		{"financial", w.Financial},
		{"url", w.URL},
		{"shortener", w.Shortener},
		{"urgency", w.Urgency},
		{"caps", w.Caps},
		{"exclamation", w.Exclamation},
		{"sender_flag", w.SenderFlag},
		{"foreign_phone", w.ForeignPhone},
	}
}

// Thresholds control both the formatting checks and the classifier
type Thresholds struct {
	// Flag is the minimum dominant score that flags a message
	Flag float64
	// Suspicious is the minimum dominant score for SUSPICIOUS
	Suspicious float64
	// MaxConfidence caps the confidence of flagged verdicts
	MaxConfidence float64
	// CapsRatio is the uppercase-letter ratio above which Caps applies
	CapsRatio float64
	// MaxExclamations is the number of '!' tolerated before Exclamation applies
	MaxExclamations int
}

// Profile is a complete scorer configuration for one message source
type Profile struct {
	Name             string
	Weights          Weights
	Thresholds       Thresholds
	Patterns         patterns.PatternSet
	CapsField        Field
	ExclamationField Field
	// TrustedPhone matches numbers that do not count as foreign. Nil trusts none.
	TrustedPhone *regexp.Regexp
}

// SMSProfile returns the reference configuration for SMS messages.
// Formatting checks run on the body since SMS has no subject.
func SMSProfile() Profile {
	return Profile{
		Name: "sms",
		Weights: Weights{
			SpamBody:        0.25,
			SpamSubject:     0.4,
			PhishingBody:    0.15,
			PhishingSubject: 0.3,
			Financial:       0.1,
			URL:             0.3,
			Shortener:       0.2,
			Urgency:         0.15,
			Caps:            0.2,
			Exclamation:     0.15,
			SenderFlag:      0.2,
			ForeignPhone:    0.2,
		},
		Thresholds: Thresholds{
			Flag:            0.6,
			Suspicious:      0.3,
			MaxConfidence:   0.95,
			CapsRatio:       0.3,
			MaxExclamations: 2,
		},
		Patterns:         patterns.Default(),
		CapsField:        FieldBody,
		ExclamationField: FieldBody,
		TrustedPhone:     regexp.MustCompile(DefaultTrustedPhonePattern),
	}
}

// EmailProfile returns the reference configuration for email messages.
// Formatting checks run on the subject line.
func EmailProfile() Profile {
	return Profile{
		Name: "email",
		Weights: Weights{
			SpamBody:        0.25,
			SpamSubject:     0.4,
			PhishingBody:    0.15,
			PhishingSubject: 0.3,
			Financial:       0.1,
			URL:             0.3,
			Shortener:       0.2,
			Urgency:         0.3,
			Caps:            0.2,
			Exclamation:     0.3,
			SenderFlag:      0.2,
			ForeignPhone:    0.2,
		},
		Thresholds: Thresholds{
			Flag:            0.7,
			Suspicious:      0.4,
			MaxConfidence:   0.95,
			CapsRatio:       0.5,
			MaxExclamations: 2,
		},
		Patterns:         patterns.Default(),
		CapsField:        FieldSubject,
		ExclamationField: FieldSubject,
		TrustedPhone:     regexp.MustCompile(DefaultTrustedPhonePattern),
	}
}

// Validate checks that the thresholds are usable and no weight is negative,
// so adding a signal never lowers a score
func (p Profile) Validate() error {
	for _, w := range p.Weights.named() {
		if w.value < 0 {
			return fmt.Errorf("profile %s: weight %s must not be negative, got %.2f", p.Name, w.name, w.value)
		}
	}

	t := p.Thresholds
	if t.Suspicious < 0 || t.Flag <= 0 {
		return fmt.Errorf("profile %s: thresholds must be positive", p.Name)
	}
	if t.Suspicious > t.Flag {
		return fmt.Errorf("profile %s: suspicious threshold %.2f exceeds flag threshold %.2f",
			p.Name, t.Suspicious, t.Flag)
	}
	if t.MaxConfidence <= 0 || t.MaxConfidence > 1 {
		return fmt.Errorf("profile %s: max confidence must be in (0,1]", p.Name)
	}
	if p.CapsField != FieldBody && p.CapsField != FieldSubject {
		return fmt.Errorf("profile %s: unknown caps field %q", p.Name, p.CapsField)
	}
	if p.ExclamationField != FieldBody && p.ExclamationField != FieldSubject {
		return fmt.Errorf("profile %s: unknown exclamation field %q", p.Name, p.ExclamationField)
	}
	return nil
}
