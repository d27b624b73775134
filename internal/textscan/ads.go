package textscan

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tunable policy constants for the advertisement scorer. The thresholds are
// heuristic, not derived from first principles; keep ScoreAdvertisement
// exported so threshold changes stay testable.
const (
	AdScoreThreshold = 3

	adMinLen              = 20  // shorter texts are exempt
	adEmojiMinLen         = 50  // emoji density applies above this length
	adEmojiRatio          = 0.3 // non-ASCII fraction that earns a point
	adCapsMinLen          = 30  // caps ratio applies above this length
	adCapsMinLetters      = 10
	adCapsRatio           = 0.8
	adRepetitionMinLen    = 100 // repetition scan applies above this length
	adRepetitionMinWords  = 8
	adRepetitionPhraseLen = 10 // 3-word window must exceed this in chars

	weightStrongPhrase = 2
	weightMediumTerms  = 1
	weightEmoji        = 1
	weightCaps         = 1
	weightPhone        = 1
	weightRepetition   = 1
)

// strongPhrases are multi-word commercial phrases; each distinct hit scores
// weightStrongPhrase. Localized equivalents sit next to the English ones.
var strongPhrases = []string{
	"buy now", "order now", "act now", "click here", "limited time",
	"special offer", "guaranteed profit", "guaranteed income", "no risk",
	"free trial", "earn money", "make money", "work from home",
	"business opportunity", "passive income", "double your money",
	"investment opportunity", "crypto signals", "join my team",
	// Russian
	"быстрый заработок", "гарантированный доход", "работа на дому",
	"пассивный доход",
	// Uzbek
	"tez daromad", "uydan ish", "kafolatlangan foyda",
}

// mediumTerms are single commercial words. A lone hit is meaningless; two or
// more distinct hits together score weightMediumTerms once.
var mediumTerms = map[string]struct{}{
	"buy": {}, "sell": {}, "discount": {}, "sale": {}, "promo": {},
	"offer": {}, "deal": {}, "cheap": {}, "free": {}, "win": {},
	"prize": {}, "profit": {}, "income": {}, "cash": {}, "bonus": {},
	"investment": {}, "urgent": {}, "exclusive": {}, "instant": {},
	// Russian
	"продам": {}, "куплю": {}, "скидка": {}, "акция": {}, "реклама": {},
	"заработок": {}, "деньги": {}, "доход": {}, "прибыль": {}, "вакансия": {},
	// Uzbek
	"sotaman": {}, "chegirma": {}, "aksiya": {}, "reklama": {},
	"daromad": {}, "foyda": {}, "arzon": {}, "vakansiya": {},
}

var phoneRe = regexp.MustCompile(`\+?\d{2,4}[-.\s()]{0,3}\d{2,4}[-.\s()]{0,3}\d{2,3}[-.\s()]{0,3}\d{2,4}`)

// ScoreAdvertisement accumulates weighted evidence that text is an
// advertisement and returns the score with the contributing reasons. The
// reasons slice exists for tuning and tests; IsAdvertisement is the
// production entry point.
func ScoreAdvertisement(text string) (int, []string) {
	runes := utf8.RuneCountInString(text)
	if runes < adMinLen {
		return 0, nil
	}

	lower := strings.ToLower(text)
	score := 0
	var reasons []string

	for _, phrase := range strongPhrases {
		if strings.Contains(lower, phrase) {
			score += weightStrongPhrase
			reasons = append(reasons, "strong phrase: "+phrase)
		}
	}

	if n := countMediumTerms(lower); n >= 2 {
		score += weightMediumTerms
		reasons = append(reasons, "multiple commercial terms")
	}

	if runes > adEmojiMinLen {
		if ratio := nonASCIIRatio(text); ratio > adEmojiRatio {
			score += weightEmoji
			reasons = append(reasons, "emoji density")
		}
	}

	if runes > adCapsMinLen {
		letters, upper := 0, 0
		for _, r := range text {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters > adCapsMinLetters && float64(upper)/float64(letters) > adCapsRatio {
			score += weightCaps
			reasons = append(reasons, "excessive capitalization")
		}
	}

	if runes > adRepetitionMinLen && hasRepeatedPhrase(lower) {
		score += weightRepetition
		reasons = append(reasons, "repeated phrases")
	}

	// A phone number alone is not evidence; a phone number alongside any
	// other commercial signal is.
	if score > 0 && phoneRe.MatchString(text) {
		score += weightPhone
		reasons = append(reasons, "phone number with commercial signal")
	}

	return score, reasons
}

// IsAdvertisement thresholds the score into the production verdict.
func IsAdvertisement(text string) bool {
	score, _ := ScoreAdvertisement(text)
	return score >= AdScoreThreshold
}

func countMediumTerms(lower string) int {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	found := make(map[string]struct{})
	for _, w := range words {
		if _, ok := mediumTerms[w]; ok {
			found[w] = struct{}{}
		}
	}
	return len(found)
}

func nonASCIIRatio(text string) float64 {
	total, high := 0, 0
	for _, r := range text {
		total++
		if r > 127 {
			high++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(high) / float64(total)
}

// hasRepeatedPhrase slides a 3-word window over the text and reports whether
// any sufficiently long phrase recurs later on.
func hasRepeatedPhrase(lower string) bool {
	words := strings.Fields(lower)
	if len(words) < adRepetitionMinWords {
		return false
	}
	for i := 0; i+3 < len(words); i++ {
		phrase := strings.Join(words[i:i+3], " ")
		if len(phrase) <= adRepetitionPhraseLen {
			continue
		}
		rest := strings.Join(words[i+3:], " ")
		if strings.Contains(rest, phrase) {
			return true
		}
	}
	return false
}
