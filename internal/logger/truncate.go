package logger

import "unicode/utf8"

const truncatedSuffix = "...truncated"

// truncateString limits s to maxBytes bytes, marking the cut with
// truncatedSuffix when there is room for it. Cuts never split a UTF-8
// sequence, so the result may be a few bytes shorter than maxBytes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes <= len(truncatedSuffix) {
		return s[:runeBoundary(s, maxBytes)]
	}
	return s[:runeBoundary(s, maxBytes-len(truncatedSuffix))] + truncatedSuffix
}

// runeBoundary returns the largest n <= limit at which s can be cut.
func runeBoundary(s string, limit int) int {
	if limit <= 0 {
		return 0
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
