// Package textscan holds the pure lexical analyzers behind the moderation
// pipeline: handle validation, mention extraction, link detection and the
// advertisement scorer. Everything here is deterministic and side-effect
// free; no network resolution is ever performed.
package textscan

import "strings"

const (
	minHandleLen = 5
	maxHandleLen = 32
)

// IsValidHandle reports whether candidate is a syntactically legal public
// handle. A leading '@' is tolerated and stripped. Rules: 5-32 characters,
// starts with a letter, ends alphanumeric, only letters/digits/underscore,
// no two consecutive underscores.
func IsValidHandle(candidate string) bool {
	h := strings.TrimPrefix(candidate, "@")
	if len(h) < minHandleLen || len(h) > maxHandleLen {
		return false
	}
	if !isAlpha(h[0]) {
		return false
	}
	if !isAlnum(h[len(h)-1]) {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !isAlnum(c) && c != '_' {
			return false
		}
		if c == '_' && i > 0 && h[i-1] == '_' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}
