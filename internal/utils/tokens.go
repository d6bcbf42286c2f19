package utils

// Rough prompt sizing. Model tokenizers differ; ~4 characters per token is
// close enough to warn before a request overflows a context window.

const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Any non-empty text
// counts as at least one token.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < charsPerToken {
		return 1
	}
	return n / charsPerToken
}

// TruncateToTokenLimit cuts text to roughly limit tokens.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if limit*charsPerToken >= len(runes) {
		return text
	}
	return string(runes[:limit*charsPerToken])
}

// Section is one labeled part of a prompt.
type Section struct {
	Label string
	Text  string
}

// SectionTokens is the estimate for one Section.
type SectionTokens struct {
	Label  string
	Tokens int
}

// TokenBreakdown estimates each section in order and returns the total.
func TokenBreakdown(sections ...Section) ([]SectionTokens, int) {
	out := make([]SectionTokens, 0, len(sections))
	total := 0
	for _, s := range sections {
		n := CountTokens(s.Text)
		out = append(out, SectionTokens{Label: s.Label, Tokens: n})
		total += n
	}
	return out, total
}

// FitsContext reports whether promptTokens plus the reserved completion
// budget fit a context window. An unknown window (<= 0) always fits.
func FitsContext(promptTokens, reserve, window int) bool {
	if window <= 0 {
		return true
	}
	return promptTokens+reserve <= window
}
