package scoring

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/patterns"
)

// Input is the analyzable part of a message
type Input struct {
	Sender  string
	Subject string
	Body    string
}

// Signal records one contribution to a score
type Signal struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail,omitempty"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Breakdown is a score together with the signals that produced it
type Breakdown struct {
	Scores  core.Scores `json:"scores"`
	Signals []Signal    `json:"signals"`
}

const (
	targetSpam      = "spam"
	targetPhishing  = "phishing"
	targetFinancial = "financial"
)

// Scorer accumulates weighted keyword and pattern hits.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	profile Profile
}

// NewScorer creates a scorer for a profile
func NewScorer(profile Profile) *Scorer {
	return &Scorer{profile: profile}
}

// Profile returns the scorer's configuration
func (s *Scorer) Profile() Profile {
	return s.profile
}

// ComputeScores scores text as the body of a message with no sender or subject
func (s *Scorer) ComputeScores(text string) core.Scores {
	return s.Score(Input{Body: text}).Scores
}

// ScoreMessage scores a full message. A nil message scores zero.
func (s *Scorer) ScoreMessage(msg *core.Message) core.Scores {
	if msg == nil {
		return core.Scores{}
	}
	return s.Score(Input{Sender: msg.Sender, Subject: msg.Subject, Body: msg.Body}).Scores
}

// Score runs every check over the input and records each hit
func (s *Scorer) Score(in Input) Breakdown {
	var b Breakdown
	w := s.profile.Weights
	ps := s.profile.Patterns

	body := lower(in.Body)
	subject := lower(in.Subject)
	sender := lower(in.Sender)
	combined := body
	if subject != "" {
		combined = subject + "\n" + body
	}

	for _, kw := range ps.Spam.Matches(body) {
		b.add(targetSpam, "spam_keyword", kw, w.SpamBody)
	}
	for _, kw := range ps.Spam.Matches(subject) {
		b.add(targetSpam, "spam_keyword_subject", kw, w.SpamSubject)
	}

	for _, kw := range ps.Phishing.Matches(body) {
		b.add(targetPhishing, "phishing_keyword", kw, w.PhishingBody)
	}
	for _, kw := range ps.Phishing.Matches(subject) {
		b.add(targetPhishing, "phishing_keyword_subject", kw, w.PhishingSubject)
	}

	for _, kw := range ps.Financial.Matches(combined) {
		b.add(targetFinancial, "financial_keyword", kw, w.Financial)
	}

	urls := patterns.URLPattern.FindAllString(combined, -1)
	if len(urls) > 0 {
		b.add(targetPhishing, "url", urls[0], w.URL)
	}
	for _, link := range urls {
		if isShortened(link, ps.Shorteners) {
			b.add(targetPhishing, "shortened_url", link, w.Shortener)
		}
	}

	for _, word := range ps.Urgency.Matches(combined) {
		b.add(targetSpam, "urgency", word, w.Urgency)
	}

	capsText, bangText := in.Body, in.Body
	if s.profile.CapsField == FieldSubject {
		capsText = in.Subject
	}
	if s.profile.ExclamationField == FieldSubject {
		bangText = in.Subject
	}

	if UppercaseRatio(capsText) > s.profile.Thresholds.CapsRatio {
		b.add(targetSpam, "uppercase", string(s.profile.CapsField), w.Caps)
	}
	if strings.Count(bangText, "!") > s.profile.Thresholds.MaxExclamations {
		b.add(targetSpam, "exclamations", string(s.profile.ExclamationField), w.Exclamation)
	}

	if flags := ps.SenderFlags.Matches(sender); len(flags) > 0 {
		b.add(targetSpam, "sender_flag", flags[0], w.SenderFlag)
	}

	if numbers := patterns.PhonePattern.FindAllString(combined, -1); len(numbers) > 0 && !s.anyTrusted(numbers) {
		b.add(targetPhishing, "foreign_phone", numbers[0], w.ForeignPhone)
	}

	return b
}

func (s *Scorer) anyTrusted(numbers []string) bool {
	if s.profile.TrustedPhone == nil {
		return false
	}
	for _, n := range numbers {
		if s.profile.TrustedPhone.MatchString(n) {
			return true
		}
	}
	return false
}

func (b *Breakdown) add(target, name, detail string, weight float64) {
	switch target {
	case targetSpam:
		b.Scores.Spam += weight
	case targetPhishing:
		b.Scores.Phishing += weight
	case targetFinancial:
		b.Scores.Financial += weight
	}
	b.Signals = append(b.Signals, Signal{Name: name, Detail: detail, Target: target, Weight: weight})
}

// UppercaseRatio is the share of letters that are upper case. Text without letters yields 0.
func UppercaseRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// lower uses a fresh Caser per call; Casers are not safe for concurrent use
func lower(text string) string {
	if text == "" {
		return ""
	}
	return cases.Lower(language.Und).String(text)
}

func isShortened(link string, shorteners patterns.Dictionary) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	for _, domain := range shorteners {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
