package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor prepares message text for display and for reviewer prompts
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Clean drops invalid UTF-8 bytes
func (tp *TextProcessor) Clean(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	cleaned := strings.ToValidUTF8(text, "")
	tp.logger.Debug("Dropped invalid UTF-8",
		zap.Int("original_size", len(text)),
		zap.Int("cleaned_size", len(cleaned)))
	return cleaned
}

// ReviewBody cleans a message body and cuts it to at most maxBytes on a rune
// boundary. A cut body ends with a note telling the model how much it sees.
func (tp *TextProcessor) ReviewBody(body string, maxBytes int) string {
	body = tp.Clean(body)
	if maxBytes <= 0 || len(body) <= maxBytes {
		return body
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}

	tp.logger.Debug("Review body cut",
		zap.Int("body_size", len(body)),
		zap.Int("kept", cut))

	return body[:cut] + fmt.Sprintf("\n[message body cut to %d of %d bytes]", cut, len(body))
}

// Excerpt returns a single-line preview of at most maxRunes runes,
// suffixed with an ellipsis when shortened
func (tp *TextProcessor) Excerpt(text string, maxRunes int) string {
	line := strings.Join(strings.Fields(tp.Clean(text)), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(line) <= maxRunes {
		return line
	}

	runes := []rune(line)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
