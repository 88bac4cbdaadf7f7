package core

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a message came from
type Source string

const (
	SourceSMS   Source = "SMS"
	SourceEmail Source = "EMAIL"
)

// Category is the verdict assigned to a message
type Category string

const (
	CategorySafe       Category = "SAFE"
	CategorySuspicious Category = "SUSPICIOUS"
	CategorySpam       Category = "SPAM"
	CategoryPhishing   Category = "PHISHING"
	CategoryFraud      Category = "FRAUD"
)

// IsFlagged reports whether the category marks a message as unsafe
func (c Category) IsFlagged() bool {
	switch c {
	case CategorySpam, CategoryPhishing, CategoryFraud:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategorySafe, CategorySuspicious, CategorySpam, CategoryPhishing, CategoryFraud:
		return true
	default:
		return false
	}
}

// Message represents one inbound text item to be judged
type Message struct {
	ID         string           `json:"id"`
	Source     Source           `json:"source"`
	Sender     string           `json:"sender"`
	Subject    string           `json:"subject,omitempty"`
	Body       string           `json:"body"`
	ReceivedAt time.Time        `json:"receivedAt"`
	Result     *DetectionResult `json:"result,omitempty"`
	Review     *Review          `json:"review,omitempty"`
}

// DetectionResult is the classifier's verdict for a single message
type DetectionResult struct {
	IsFlagged  bool     `json:"isFlagged"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
}

// Scores holds the raw accumulated signal scores for a message
type Scores struct {
	Spam      float64 `json:"spam"`
	Phishing  float64 `json:"phishing"`
	Financial float64 `json:"financial"`
}

// Max returns the dominant flag-relevant score
func (s Scores) Max() float64 {
	if s.Phishing > s.Spam {
		return s.Phishing
	}
	return s.Spam
}

// RawMessage is the shape monitoring sources deliver messages in.
// Timestamp is milliseconds since the Unix epoch.
type RawMessage struct {
	Address   string `json:"address"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Source    Source `json:"source,omitempty"`
}

// Summary is what gets handed to a notification sink for a flagged message
type Summary struct {
	MessageID  string   `json:"messageId"`
	Sender     string   `json:"sender"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Excerpt    string   `json:"excerpt"`
}

// Review is an advisory second opinion from an external model.
// It never replaces the rule-based DetectionResult.
type Review struct {
	Verdict     Category  `json:"verdict"`
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation"`
	Model       string    `json:"model"`
	ReviewedAt  time.Time `json:"reviewedAt"`
}

// NewReview builds a Review from a model's answer. Confidence is clamped to [0,1].
func NewReview(verdict string, confidence float64, explanation, model string, at time.Time) (*Review, error) {
	category := Category(strings.ToUpper(strings.TrimSpace(verdict)))
	if !category.Valid() {
		return nil, fmt.Errorf("unknown verdict %q", verdict)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &Review{
		Verdict:     category,
		Confidence:  confidence,
		Explanation: explanation,
		Model:       model,
		ReviewedAt:  at,
	}, nil
}
