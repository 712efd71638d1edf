package query

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on every rune that is neither a
// letter nor a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms returns the set of non-stop-word tokens in text.
func Terms(text string) map[string]struct{} {
	tokens := Tokenize(text)
	terms := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if IsStopword(tok) {
			continue
		}
		terms[tok] = struct{}{}
	}
	return terms
}

// Jaccard returns |a∩b| / |a∪b| over the term sets of two texts.
// Two texts without any terms have similarity 0.
func Jaccard(a, b string) float64 {
	return JaccardSets(Terms(a), Terms(b))
}

// JaccardSets is Jaccard over precomputed term sets.
func JaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
