package ranking

import "github.com/fyrsmithlabs/personarank/internal/query"

// PersonaCategory maps persona wording to domain keywords.
type PersonaCategory struct {
	Name string
	// Words match as substrings of the lowercased persona. An empty list
	// matches every persona.
	Words    []string
	Keywords []string
}

// PersonaCategories is searched in order and the first match wins. The
// last entry is the catch-all.
var PersonaCategories = []PersonaCategory{
	{
		Name:  "travel",
		Words: []string{"travel", "planner"},
		Keywords: []string{
			"activities", "things to do", "attractions", "restaurants", "hotels", "nightlife",
			"entertainment", "beach", "coastal", "adventures", "tips", "tricks", "packing",
			"itinerary", "booking", "destination", "trip", "vacation", "city guide",
			"cuisine", "culinary", "dining", "bars", "clubs", "tours", "experiences",
		},
	},
	{
		Name:     "hr",
		Words:    []string{"hr", "professional"},
		Keywords: []string{"employee", "onboarding", "compliance", "form", "policy", "hiring", "benefits", "management"},
	},
	{
		Name:     "food",
		Words:    []string{"food", "contractor"},
		Keywords: []string{"recipe", "ingredient", "cooking", "menu", "vegetarian", "gluten", "dietary", "preparation"},
	},
	{
		Name:     "research",
		Words:    []string{"research"},
		Keywords: []string{"methodology", "analysis", "data", "study", "research", "findings", "academic"},
	},
	{
		Name:     "business",
		Words:    []string{"business"},
		Keywords: []string{"revenue", "investment", "market", "strategy", "financial", "growth", "corporate"},
	},
	{
		Name:     "general",
		Keywords: []string{"concept", "study", "learning", "education", "theory", "information"},
	},
}

// PersonaCategoryFor returns the first category matching the lowercased
// persona.
func PersonaCategoryFor(personaLower string) PersonaCategory {
	for _, c := range PersonaCategories {
		if len(c.Words) == 0 || query.ContainsAny(personaLower, c.Words) {
			return c
		}
	}
	return PersonaCategories[len(PersonaCategories)-1]
}

// penaltyRule adds penalty words when any trigger occurs in the job.
type penaltyRule struct {
	Triggers []string
	Words    []string
}

var penaltyRules = []penaltyRule{
	{
		// Actionable jobs: background material ranks lower.
		Triggers: []string{"plan", "do", "organize", "experience"},
		Words: []string{
			"history", "historical", "ancient", "medieval", "founded",
			"century", "heritage", "civilization", "conclusion", "summary",
		},
	},
	{
		// Current-state jobs: dated material ranks lower.
		Triggers: []string{"current", "modern", "today", "now"},
		Words:    []string{"ancient", "medieval", "historical", "traditional"},
	},
}

// PenaltyWords returns the distinct penalty words triggered by the
// lowercased job description.
func PenaltyWords(jobLower string) []string {
	var words []string
	seen := map[string]struct{}{}
	for _, rule := range penaltyRules {
		if !query.ContainsAny(jobLower, rule.Triggers) {
			continue
		}
		for _, w := range rule.Words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	return words
}

var (
	titlePenaltyJobWords     = []string{"plan", "do", "visit", "experience", "try", "organize"}
	titlePenaltySectionWords = []string{"conclusion", "summary", "overview"}
)

// titlePrefixRunes is how much of an unbroken text counts as its title.
const titlePrefixRunes = 100
