// Package query builds the scoring query for a persona and job to be done.
package query

import (
	"strings"
	"unicode/utf8"
)

// minKeywordLength is exclusive: job tokens need more than this many letters.
const minKeywordLength = 3

// focusKeywords is how many keywords are spelled out in the query text.
const focusKeywords = 5

// Trigger injects context keywords when any of its words occurs in the job.
type Trigger struct {
	Name     string
	Words    []string
	Keywords []string
}

// ContextTriggers is evaluated in order; every matching trigger fires.
var ContextTriggers = []Trigger{
	{
		Name:     "travel",
		Words:    []string{"trip", "travel", "vacation", "visit"},
		Keywords: []string{"activities", "attractions", "restaurants", "hotels", "things to do"},
	},
	{
		Name:     "group",
		Words:    []string{"friends", "group", "college"},
		Keywords: []string{"nightlife", "entertainment", "budget", "tips"},
	},
	{
		Name:     "planning",
		Words:    []string{"plan", "organize", "schedule"},
		Keywords: []string{"itinerary", "guide", "recommendations"},
	},
	{
		Name:     "business",
		Words:    []string{"business", "professional", "work"},
		Keywords: []string{"meeting", "conference", "networking"},
	},
	{
		Name:     "food",
		Words:    []string{"food", "cook", "meal", "menu"},
		Keywords: []string{"recipe", "ingredients", "cooking", "preparation"},
	},
}

// Query is the derived scoring query for one request.
type Query struct {
	Persona string
	Job     string

	// Text is the string embedded and paired with sections.
	Text string

	// JobTokens are the meaningful job description words, in order.
	JobTokens []string
	// ContextKeywords were injected by matching triggers, in table order.
	ContextKeywords []string
	// Keywords is JobTokens followed by ContextKeywords without duplicates.
	Keywords []string
	// Triggers lists the names of the triggers that fired.
	Triggers []string
}

// Build derives the query for persona and job. It is deterministic.
func Build(persona, job string) Query {
	persona = strings.TrimSpace(persona)
	job = strings.TrimSpace(job)

	jobTokens := JobTokens(job)
	contextKeywords, fired := ContextKeywords(job)

	keywords := dedupe(append(append([]string{}, jobTokens...), contextKeywords...))

	return Query{
		Persona:         persona,
		Job:             job,
		Text:            composeText(persona, job, keywords),
		JobTokens:       jobTokens,
		ContextKeywords: contextKeywords,
		Keywords:        keywords,
		Triggers:        fired,
	}
}

// JobTokens tokenizes the job description and keeps alphabetic,
// non-stop-word tokens longer than three letters.
func JobTokens(job string) []string {
	var out []string
	for _, tok := range Tokenize(job) {
		if utf8.RuneCountInString(tok) <= minKeywordLength || !isAlpha(tok) || IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return dedupe(out)
}

// ContextKeywords returns the keywords of every trigger whose words occur
// as substrings of the lowercased job, and the names of those triggers.
func ContextKeywords(job string) ([]string, []string) {
	lower := strings.ToLower(job)
	var keywords, fired []string
	for _, tr := range ContextTriggers {
		if ContainsAny(lower, tr.Words) {
			keywords = append(keywords, tr.Keywords...)
			fired = append(fired, tr.Name)
		}
	}
	return dedupe(keywords), fired
}

// ContainsAny reports whether any needle is a substring of s.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func composeText(persona, job string, keywords []string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(": ")
	b.WriteString(strings.TrimRight(job, "."))
	b.WriteString(".")
	if len(keywords) > 0 {
		n := min(len(keywords), focusKeywords)
		b.WriteString(" Focus on ")
		b.WriteString(strings.Join(keywords[:n], ", "))
		b.WriteString(".")
	}
	return b.String()
}

func dedupe(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
