// Package summary derives short extractive summaries from article text.
package summary

import (
	"strings"
	"unicode"
)

const (
	MaxSentences = 5
	MaxChars     = 500
	// Truncation backs up to a period only if one exists at or after this offset.
	minCutOffset = 300
	// Fragments shorter than this are dropped as noise (headings, initials).
	minSentenceChars = 20

	Fallback = "No summary available for this topic."
)

// Summarize keeps the leading 3-5 qualifying sentences of text, capped at
// MaxChars runes and cut at the last full sentence when possible.
func Summarize(text string) string {
	sentences := Sentences(text)

	n := len(sentences)
	if n > MaxSentences {
		n = MaxSentences
	}
	summary := strings.Join(sentences[:n], " ")

	runes := []rune(summary)
	if len(runes) > MaxChars {
		runes = runes[:MaxChars]
		cut := len(runes)
		for i := len(runes) - 1; i >= minCutOffset; i-- {
			if runes[i] == '.' {
				cut = i + 1
				break
			}
		}
		summary = string(runes[:cut])
	}

	if summary == "" {
		return Fallback
	}
	return summary
}

// Sentences splits text after '.', '!' or '?' followed by whitespace and
// drops fragments shorter than 20 characters.
func Sentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)

	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = appendSentence(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = appendSentence(out, string(runes[start:]))
	}
	return out
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < minSentenceChars {
		return out
	}
	return append(out, s)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
