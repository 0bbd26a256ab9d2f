package util

import "strings"

// Truncate trims s and cuts it to at most limit runes.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	if runes := []rune(s); len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// TruncateForLog is Truncate with an ellipsis appended when something was cut.
func TruncateForLog(s string, limit int) string {
	short := Truncate(s, limit)
	if short == "" || short == strings.TrimSpace(s) {
		return short
	}
	return short + "..."
}
