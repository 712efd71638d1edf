package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_TravelPlanner(t *testing.T) {
	q := Build("Travel Planner", "Plan a trip of 4 days for a group of 10 college friends.")

	assert.Equal(t, []string{"plan", "trip", "days", "group", "college", "friends"}, q.JobTokens)
	assert.Equal(t, []string{"travel", "group", "planning"}, q.Triggers)
	assert.Equal(t,
		"Travel Planner: Plan a trip of 4 days for a group of 10 college friends. Focus on plan, trip, days, group, college.",
		q.Text)

	require.Contains(t, q.Keywords, "nightlife")
	require.Contains(t, q.Keywords, "itinerary")
	require.Contains(t, q.Keywords, "things to do")
	assert.Equal(t, "plan", q.Keywords[0])
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build("HR professional", "Create and manage fillable forms for onboarding and compliance.")
	b := Build("HR professional", "Create and manage fillable forms for onboarding and compliance.")
	assert.Equal(t, a, b)
}

func TestBuild_NoKeywordsOmitsFocus(t *testing.T) {
	q := Build("Student", "do it")

	assert.Empty(t, q.Keywords)
	assert.Equal(t, "Student: do it.", q.Text)
}

func TestBuild_KeywordsDeduplicated(t *testing.T) {
	q := Build("Chef", "Cook a menu, cook a meal, with a menu for the food festival")

	seen := map[string]int{}
	for _, k := range q.Keywords {
		seen[k]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "keyword %q repeated", k)
	}
	assert.Contains(t, q.Keywords, "recipe")
}

func TestJobTokens(t *testing.T) {
	tests := []struct {
		name string
		job  string
		want []string
	}{
		{"stopwords and short words dropped", "what should they do about the hotels", []string{"hotels"}},
		{"digits dropped", "visit 2024 venues", []string{"visit", "venues"}},
		{"punctuation split", "menu-planning; buffet!", []string{"menu", "planning", "buffet"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JobTokens(tt.job))
		})
	}
}

func TestContextKeywords_SubstringMatch(t *testing.T) {
	// "workshop" contains "work", matching the business trigger.
	kws, fired := ContextKeywords("Run a WORKSHOP")
	assert.Equal(t, []string{"business"}, fired)
	assert.Equal(t, []string{"meeting", "conference", "networking"}, kws)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, Jaccard("Beach Hotels", "hotels beach"), 1e-9)
	assert.InDelta(t, 0.0, Jaccard("the of and", "a an the"), 1e-9)
	assert.InDelta(t, 1.0/3.0, Jaccard("nice beach", "beach bars"), 1e-9)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("wouldn't"))
	assert.False(t, IsStopword("beach"))
}
