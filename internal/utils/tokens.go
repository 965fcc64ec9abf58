package utils

// CountTokens estimates the number of tokens in the given text using the
// 1 token ~= 4 characters heuristic.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens, marking
// the cut.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	const marker = "\n...(truncated)"
	keep := charLimit - len(marker)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + marker
}
