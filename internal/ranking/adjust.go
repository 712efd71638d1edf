package ranking

import (
	"strings"

	"github.com/fyrsmithlabs/personarank/internal/query"
)

// Adjust applies keyword boosts and penalties to every section. The net
// adjustment per section is bounded by p.MinAdjustment and p.MaxAdjustment
// whatever the keyword counts.
func Adjust(q query.Query, in []Reranked, p Params) []Adjusted {
	personaLower := strings.ToLower(q.Persona)
	jobLower := strings.ToLower(q.Job)

	keywords := boostKeywords(q.Keywords, PersonaCategoryFor(personaLower).Keywords)
	penaltyWords := PenaltyWords(jobLower)
	titleRule := query.ContainsAny(jobLower, titlePenaltyJobWords)

	out := make([]Adjusted, len(in))
	for i, r := range in {
		text := strings.ToLower(r.FullText())
		a := Adjusted{Reranked: r}

		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				a.MatchedKeywords = append(a.MatchedKeywords, kw)
			}
		}
		for _, w := range penaltyWords {
			if strings.Contains(text, w) {
				a.MatchedPenalty = append(a.MatchedPenalty, w)
			}
		}
		a.Boost = float64(len(a.MatchedKeywords)) * p.KeywordBoost
		a.Penalty = float64(len(a.MatchedPenalty)) * p.PenaltyStep

		if titleRule && query.ContainsAny(titlePrefix(text), titlePenaltySectionWords) {
			a.TitlePenalized = true
			a.Penalty += p.TitlePenalty
		}

		a.Adjustment = clamp(a.Boost-min(a.Penalty, p.PenaltyCap), p.MinAdjustment, p.MaxAdjustment)
		a.Final = r.Fused + a.Adjustment
		out[i] = a
	}
	return out
}

// boostKeywords merges job and persona keywords without duplicates.
func boostKeywords(job, persona []string) []string {
	seen := make(map[string]struct{}, len(job)+len(persona))
	out := make([]string, 0, len(job)+len(persona))
	for _, list := range [][]string{job, persona} {
		for _, kw := range list {
			kw = strings.ToLower(kw)
			if _, ok := seen[kw]; ok || kw == "" {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// titlePrefix is the first line of text, or its first 100 runes when the
// text is a single line.
func titlePrefix(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	runes := []rune(text)
	if len(runes) > titlePrefixRunes {
		return string(runes[:titlePrefixRunes])
	}
	return text
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
