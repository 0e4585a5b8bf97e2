package interview

import (
	"strings"
	"unicode"
)

// LexiconVersion is bumped whenever an entry list below changes, so stored
// transcripts can be re-evaluated against the rules that produced them.
const LexiconVersion = 3

var affirmativeLexicon = []string{
	"yes", "y", "yeah", "yep", "sure", "absolutely", "of course", "definitely",
	"sí", "si", "claro", "por supuesto",
}

var negativeLexicon = []string{
	"no", "nope", "nah", "none", "solo", "alone", "by myself", "myself",
	"ninguno", "nadie", "por mi cuenta",
}

// Broader lists used when turning free text into booleans for the
// qualification record. They include the skip lexicons above.
var (
	extraAffirmative = []string{
		"correct", "that's right", "affirmative", "true", "i do", "i have", "i am", "i can",
		"yup", "certainly", "tengo", "correcto",
	}
	extraNegative = []string{"not", "negative", "false", "never"}

	// Negations are removed before affirmatives are checked so that
	// "i do not" does not also read as "i do".
	negations = []string{
		"i don't", "i do not", "i can't", "i cannot", "not yet", "don't have", "do not have",
		"no tengo", "no puedo",
	}
)

// IsAffirmative reports whether any affirmative entry occurs anywhere in the
// lower-cased answer, so "maybe" matches "y".
func IsAffirmative(text string) bool { return containsSubstring(text, affirmativeLexicon) }

// IsNegative reports whether any negative entry occurs anywhere in the
// lower-cased answer, so "nobody" and "not really" both match "no".
func IsNegative(text string) bool { return containsSubstring(text, negativeLexicon) }

// InterpretBool maps free text to a boolean using the generous lexicons.
// Answers matching both sides, or neither, are ambiguous and report ok=false.
func InterpretBool(text string) (value, ok bool) {
	norm := normalizeAnswer(text)
	if norm == "" {
		return false, false
	}
	negated := false
	padded := " " + norm + " "
	for _, n := range negations {
		if strings.Contains(padded, " "+n+" ") {
			negated = true
			padded = strings.ReplaceAll(padded, " "+n+" ", " ")
		}
	}
	norm = strings.TrimSpace(padded)

	yes := containsAny(norm, affirmativeLexicon) || containsAny(norm, extraAffirmative)
	no := negated || containsAny(norm, negativeLexicon) || containsAny(norm, extraNegative)
	switch {
	case yes && !no:
		return true, true
	case no && !yes:
		return false, true
	default:
		return false, false
	}
}

// normalizeAnswer lower-cases, trims, folds curly apostrophes and turns all
// other punctuation into single spaces.
func normalizeAnswer(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "’", "'")

	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func containsSubstring(text string, entries []string) bool {
	lower := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), "’", "'")
	if lower == "" {
		return false
	}
	for _, e := range entries {
		if strings.Contains(lower, e) {
			return true
		}
	}
	return false
}

// containsAny matches entries as whole words or phrases of a normalized answer.
func containsAny(norm string, entries []string) bool {
	if norm == "" {
		return false
	}
	padded := " " + norm + " "
	for _, e := range entries {
		if strings.Contains(padded, " "+e+" ") {
			return true
		}
	}
	return false
}
