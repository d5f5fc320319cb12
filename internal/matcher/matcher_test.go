package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_FindAll(t *testing.T) {
	tests := []struct {
		name     string
		words    []string
		text     string
		expected []string
	}{
		{
			name:     "single match",
			words:    []string{"spam"},
			text:     "this is spam",
			expected: []string{"spam"},
		},
		{
			name:     "case insensitive",
			words:    []string{"spam"},
			text:     "SPAM everywhere",
			expected: []string{"spam"},
		},
		{
			name:     "no substring match inside larger token",
			words:    []string{"ass"},
			text:     "attending class",
			expected: nil,
		},
		{
			name:     "no match at token start",
			words:    []string{"ass"},
			text:     "the assassin",
			expected: nil,
		},
		{
			name:     "whole word match",
			words:    []string{"ass"},
			text:     "you ass",
			expected: []string{"ass"},
		},
		{
			name:     "punctuation is a boundary",
			words:    []string{"ass"},
			text:     "ASS!",
			expected: []string{"ass"},
		},
		{
			name:     "underscore is a word character",
			words:    []string{"spam"},
			text:     "spam_bot says hi",
			expected: nil,
		},
		{
			name:     "multiple words keep input order",
			words:    []string{"bad", "worse", "spam"},
			text:     "spam is bad",
			expected: []string{"bad", "spam"},
		},
		{
			name:     "duplicate occurrences reported once",
			words:    []string{"bad"},
			text:     "bad bad bad",
			expected: []string{"bad"},
		},
		{
			name:     "non-latin script word",
			words:    []string{"плохо"},
			text:     "это ПЛОХО!",
			expected: []string{"плохо"},
		},
		{
			name:     "non-latin word not matched inside larger token",
			words:    []string{"плохо"},
			text:     "неплохой день",
			expected: nil,
		},
		{
			name:     "regexp metacharacters are literal",
			words:    []string{"a.b"},
			text:     "the a.b token and the axb token",
			expected: []string{"a.b"},
		},
		{
			name:     "empty text",
			words:    []string{"spam"},
			text:     "",
			expected: nil,
		},
		{
			name:     "clean text",
			words:    []string{"spam", "scam"},
			text:     "a perfectly fine message",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compile(tt.words)
			assert.Equal(t, tt.expected, m.FindAll(tt.text))
		})
	}
}

func TestCompile_EmptyWordList(t *testing.T) {
	assert.Nil(t, Compile(nil))
	assert.Nil(t, Compile([]string{}))
}

func TestMatcher_NilReceiver(t *testing.T) {
	var m *Matcher
	assert.Nil(t, m.FindAll("anything"))
}

func TestSignature_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, Signature([]string{"a", "b"}), Signature([]string{"b", "a"}))
	assert.Equal(t, Signature([]string{"a", "b"}), Signature([]string{"a", "b"}))
}
