package textscan

import (
	"regexp"
	"strings"

	"telegram-group-guard/internal/domain/model"
)

// Link detection is layered: structured annotations first (authoritative),
// then a family of URL-shaped patterns, finally a generic word.tld scan with
// an abbreviation stoplist to suppress punctuation-driven false matches.
var urlPatterns = []*regexp.Regexp{
	// Scheme-qualified URLs.
	regexp.MustCompile(`(?i)https?://[^\s<>"]+`),
	// Bare domains on a curated TLD allow-list.
	regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(?:com|org|net|edu|gov|mil|int|co|uz|ru|de|fr|uk|it|es|au|jp|cn|in|br)\b`),
	// The platform's own short links.
	regexp.MustCompile(`(?i)\b(?:t|telegram)\.me/[a-z0-9_]+`),
	// Major social-media profile URLs.
	regexp.MustCompile(`(?i)\b(?:instagram\.com|facebook\.com|twitter\.com|youtube\.com|tiktok\.com)/[a-z0-9_.]+`),
	// Common URL shorteners.
	regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|short\.link|s\.id)/[a-z0-9]+`),
}

var genericDomainRe = regexp.MustCompile(`\b[a-zA-Z0-9-]+\.[a-zA-Z]{2,}\b`)

// domainStoplist holds lowercased tokens the generic scan must ignore:
// common abbreviations that end a sentence right before a capitalized word.
var domainStoplist = map[string]struct{}{
	"vs": {}, "etc": {}, "inc": {}, "ltd": {}, "co": {},
	"mr": {}, "mrs": {}, "dr": {}, "prof": {},
	"e.g": {}, "i.e": {}, "p.s": {}, "u.s": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "may": {}, "jun": {},
	"jul": {}, "aug": {}, "sep": {}, "oct": {}, "nov": {}, "dec": {},
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// HasLink reports whether the message contains a URL or domain. Checks
// short-circuit on the first hit; the scan is purely lexical.
func HasLink(msg *model.Message) bool {
	text := msg.Content()
	if text == "" {
		return false
	}

	for _, e := range msg.AllEntities() {
		if e.Type == model.EntityURL || e.Type == model.EntityTextLink {
			return true
		}
	}

	return HasLinkText(text)
}

// HasLinkText runs the pattern layers over a bare string. Split out so tests
// can probe text without building a full message.
func HasLinkText(text string) bool {
	for _, re := range urlPatterns {
		if re.MatchString(text) {
			return true
		}
	}

	for _, m := range genericDomainRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if _, ok := domainStoplist[lower]; ok {
			continue
		}
		// Also skip when the second-level label alone is stoplisted
		// ("etc" in "etc.So" style runs).
		if i := strings.IndexByte(lower, '.'); i > 0 {
			if _, ok := domainStoplist[lower[:i]]; ok {
				continue
			}
		}
		return true
	}

	return false
}
