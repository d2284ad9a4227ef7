// internal/decision/templates/persona.go
package templates

import (
	"regexp"
	"strings"

	"uwizard-workers/internal/models"
)

// contractionPairs map full forms to contractions. Friendly style applies
// them left to right; professional style applies the reverse.
var contractionPairs = [][2]string{
	{"do not", "don't"},
	{"does not", "doesn't"},
	{"cannot", "can't"},
	{"will not", "won't"},
	{"we are", "we're"},
	{"we will", "we'll"},
	{"we have", "we've"},
	{"you are", "you're"},
	{"you will", "you'll"},
	{"you have", "you've"},
	{"it is", "it's"},
	{"that is", "that's"},
	{"let us", "let's"},
}

// fillerPhrases are dropped entirely by the concise style.
var fillerPhrases = []string{
	"just ",
	"really ",
	"actually ",
	"basically ",
	"in order ",
	"please note that ",
	"feel free to ",
	"go ahead and ",
}

// simplifyWords is the 6th grade vocabulary table; elevateWords is its 10th
// grade counterpart. 8th grade leaves text untouched.
var simplifyWords = map[string]string{
	"approximately": "about",
	"assistance":    "help",
	"additional":    "more",
	"purchase":      "buy",
	"immediately":   "right away",
	"require":       "need",
	"obtain":        "get",
	"provide":       "give",
	"sufficient":    "enough",
	"verify":        "check",
}

var elevateWords = map[string]string{
	"help":  "assistance",
	"more":  "additional",
	"buy":   "purchase",
	"need":  "require",
	"get":   "obtain",
	"give":  "provide",
	"check": "verify",
}

// emojiPhrases get an emoji appended under high density. Only these known
// friendly phrases are decorated; arbitrary text is left alone.
var emojiPhrases = [][2]string{
	{"Thanks", "Thanks 🙏"},
	{"Thank you", "Thank you 🙏"},
	{"Great", "Great 🎉"},
	{"Welcome", "Welcome 👋"},
	{"Congrats", "Congrats 🎉"},
	{"You're all set", "You're all set ✅"},
}

var emojiPattern = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE0F}]`)

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)

func applyStyle(text string, style models.PersonaStyle) string {
	switch style {
	case models.StyleFriendly:
		for _, pair := range contractionPairs {
			text = replaceWordAllCases(text, pair[0], pair[1])
		}
	case models.StyleProfessional:
		for _, pair := range contractionPairs {
			text = replaceWordAllCases(text, pair[1], pair[0])
		}
	case models.StyleConcise:
		for _, filler := range fillerPhrases {
			text = replaceAllCases(text, filler, "")
		}
	}
	return text
}

func applyReadingLevel(text string, level models.ReadingLevel) string {
	switch level {
	case models.Reading6th:
		for from, to := range simplifyWords {
			text = replaceWordAllCases(text, from, to)
		}
	case models.Reading10th:
		for from, to := range elevateWords {
			text = replaceWordAllCases(text, from, to)
		}
	}
	return text
}

func applyEmojiDensity(text string, density models.EmojiDensity) string {
	switch density {
	case models.EmojiHigh:
		for _, pair := range emojiPhrases {
			if strings.Contains(text, pair[0]) && !strings.Contains(text, pair[1]) {
				text = strings.Replace(text, pair[0], pair[1], 1)
			}
		}
	case models.EmojiLow:
		text = emojiPattern.ReplaceAllString(text, "")
		text = multiSpace.ReplaceAllString(text, " ")
		text = strings.TrimSpace(text)
	}
	return text
}

// replaceWordAllCases swaps whole words only, preserving an initial capital.
func replaceWordAllCases(text, from, to string) string {
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		if isCapitalized(match) {
			return capitalize(to)
		}
		return to
	})
}

func replaceAllCases(text, from, to string) string {
	text = strings.ReplaceAll(text, from, to)
	text = strings.ReplaceAll(text, capitalize(from), capitalize(to))
	return text
}

func isCapitalized(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
