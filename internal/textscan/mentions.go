package textscan

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"telegram-group-guard/internal/domain/model"
)

// mentionRe matches '@' followed by a syntactically plausible handle. It is
// the backstop for messages whose structured annotations are absent or stale
// (edits); a stricter revalidation pass runs afterwards.
var mentionRe = regexp.MustCompile(`@([a-zA-Z][a-zA-Z0-9_]{2,31})`)

const minMentionLen = 3

// ExtractMentions returns the deduplicated, lowercased set of handles
// mentioned in the message, sorted for stable output. Structured mention
// annotations are collected first (they reflect what the client rendered),
// then the raw text is scanned with mentionRe; the union is filtered through
// IsValidHandle.
func ExtractMentions(msg *model.Message) []string {
	text := msg.Content()
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})

	for _, e := range msg.AllEntities() {
		if e.Type != model.EntityMention {
			continue
		}
		raw := entityText(text, e.Offset, e.Length)
		h := strings.ToLower(strings.TrimPrefix(raw, "@"))
		if h != "" {
			seen[h] = struct{}{}
		}
	}

	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		seen[strings.ToLower(m[1])] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		if len(h) < minMentionLen || !IsValidHandle(h) {
			continue
		}
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// entityText slices an entity substring out of text. The platform reports
// offsets in UTF-16 code units, so the text is round-tripped through UTF-16
// rather than sliced by bytes.
func entityText(text string, offset, length int) string {
	u := utf16.Encode([]rune(text))
	if offset < 0 || length <= 0 || offset+length > len(u) {
		return ""
	}
	return string(utf16.Decode(u[offset : offset+length]))
}
