package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTextProcessor_Excerpt(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"short text unchanged", "hello there", 20, "hello there"},
		{"whitespace collapsed", "  line one\n\tline   two ", 50, "line one line two"},
		{"truncated with ellipsis", "abcdefghij", 4, "abcd…"},
		{"multibyte runes", "ПРИВЕТ мир", 6, "ПРИВЕТ…"},
		{"no limit", "keep everything", 0, "keep everything"},
		{"trailing space trimmed", "abc def", 4, "abc…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.Excerpt(tt.text, tt.maxRunes))
		})
	}
}

func TestTextProcessor_ReviewBody(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.ReviewBody("short", 10))
	assert.Equal(t, "unbounded", tp.ReviewBody("unbounded", 0))

	// the cut lands inside "é" so it backs up to the rune start
	out := tp.ReviewBody("héllo world", 2)
	assert.Equal(t, "h\n[message body cut to 1 of 12 bytes]", out)
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, "ab", tp.ReviewBody("a\xffb", 10))
}

func TestTextProcessor_Clean(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "valid ✓", tp.Clean("valid ✓"))
	assert.Equal(t, "ab", tp.Clean("a\xffb"))
	assert.Equal(t, "a b", tp.Excerpt("a\xff b", 10))
}
