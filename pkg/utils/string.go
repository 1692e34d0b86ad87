package utils

const ellipsis = "..."

// Truncate shortens s to at most maxLen runes. A shortened string ends in
// "..." and the ellipsis counts towards maxLen.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}
