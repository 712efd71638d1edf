package output

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fyrsmithlabs/personarank/internal/ranking"
)

var (
	topLevelKeys        = []string{"metadata", "extracted_sections", "subsection_analysis"}
	metadataStringKeys  = []string{"persona", "job_to_be_done", "processing_timestamp"}
	countsKeys          = []string{"sections", "candidates", "extracted", "refined"}
	sectionStringKeys   = []string{"document", "section_title"}
	subsectionStringKey = "document"
)

// Validate checks doc against the record schema without modifying it.
// It returns true and no errors for a conforming document.
func Validate(doc map[string]any) (bool, []string) {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if doc == nil {
		return false, []string{"document is empty"}
	}
	for _, k := range topLevelKeys {
		if _, ok := doc[k]; !ok {
			fail("%s: missing", k)
		}
	}

	if raw, ok := doc["metadata"]; ok {
		meta, isMap := raw.(map[string]any)
		if !isMap {
			fail("metadata: must be an object")
		} else {
			validateMetadata(meta, fail)
		}
	}

	if raw, ok := doc["extracted_sections"]; ok {
		sections, isList := raw.([]any)
		if !isList {
			fail("extracted_sections: must be an array")
		} else {
			validateSections(sections, fail)
		}
	}

	if raw, ok := doc["subsection_analysis"]; ok {
		subs, isList := raw.([]any)
		if !isList {
			fail("subsection_analysis: must be an array")
		} else {
			validateSubsections(subs, fail)
		}
	}

	return len(errs) == 0, errs
}

func validateMetadata(meta map[string]any, fail func(string, ...any)) {
	docs, ok := meta["input_documents"]
	switch {
	case !ok:
		fail("metadata.input_documents: missing")
	default:
		list, isList := docs.([]any)
		if !isList {
			fail("metadata.input_documents: must be an array")
			break
		}
		for i, d := range list {
			if _, isStr := d.(string); !isStr {
				fail("metadata.input_documents[%d]: must be a string", i)
			}
		}
	}

	for _, k := range metadataStringKeys {
		v, ok := meta[k]
		if !ok {
			fail("metadata.%s: missing", k)
			continue
		}
		if _, isStr := v.(string); !isStr {
			fail("metadata.%s: must be a string", k)
		}
	}
	if ts, isStr := meta["processing_timestamp"].(string); isStr && ts == "" {
		fail("metadata.processing_timestamp: must not be empty")
	}

	if raw, ok := meta["counts"]; ok && raw != nil {
		counts, isMap := raw.(map[string]any)
		if !isMap {
			fail("metadata.counts: must be an object")
			return
		}
		for _, k := range countsKeys {
			if v, present := counts[k]; present {
				if n, isInt := asInt(v); !isInt || n < 0 {
					fail("metadata.counts.%s: must be a non-negative integer", k)
				}
			}
		}
	}
}

func validateSections(sections []any, fail func(string, ...any)) {
	if len(sections) > ranking.MaxTopK {
		fail("extracted_sections: has %d entries, at most %d allowed", len(sections), ranking.MaxTopK)
	}

	n := len(sections)
	seen := make(map[int64]int, n)
	scores := make([]float64, 0, n)
	ranks := make([]int64, 0, n)
	allScored := n > 0

	for i, raw := range sections {
		s, ok := raw.(map[string]any)
		if !ok {
			fail("extracted_sections[%d]: must be an object", i)
			allScored = false
			continue
		}
		for _, k := range sectionStringKeys {
			v, present := s[k]
			if !present {
				fail("extracted_sections[%d].%s: missing", i, k)
				continue
			}
			if _, isStr := v.(string); !isStr {
				fail("extracted_sections[%d].%s: must be a string", i, k)
			}
		}

		rank, rankOK := int64(0), false
		if v, present := s["importance_rank"]; !present {
			fail("extracted_sections[%d].importance_rank: missing", i)
		} else if r, isInt := asInt(v); !isInt {
			fail("extracted_sections[%d].importance_rank: must be an integer", i)
		} else if r < 1 || r > int64(n) {
			fail("extracted_sections[%d].importance_rank: %d not in [1,%d]", i, r, n)
		} else if prev, dup := seen[r]; dup {
			fail("extracted_sections[%d].importance_rank: %d duplicates extracted_sections[%d]", i, r, prev)
		} else {
			seen[r] = i
			rank, rankOK = r, true
		}

		validatePage(s, fmt.Sprintf("extracted_sections[%d]", i), fail)

		score, scored := asFloat(s["relevance_score"])
		if _, present := s["relevance_score"]; present && !scored {
			fail("extracted_sections[%d].relevance_score: must be a number", i)
		}
		if !scored || !rankOK {
			allScored = false
			continue
		}
		scores = append(scores, score)
		ranks = append(ranks, rank)
	}

	if allScored && !ranksFollowScores(ranks, scores) {
		fail("extracted_sections: importance_rank is not ordered by descending relevance_score")
	}
}

func validateSubsections(subs []any, fail func(string, ...any)) {
	for i, raw := range subs {
		s, ok := raw.(map[string]any)
		if !ok {
			fail("subsection_analysis[%d]: must be an object", i)
			continue
		}
		if v, present := s[subsectionStringKey]; !present {
			fail("subsection_analysis[%d].document: missing", i)
		} else if _, isStr := v.(string); !isStr {
			fail("subsection_analysis[%d].document: must be a string", i)
		}
		if v, present := s["refined_text"]; !present {
			fail("subsection_analysis[%d].refined_text: missing", i)
		} else if text, isStr := v.(string); !isStr || text == "" {
			fail("subsection_analysis[%d].refined_text: must be a non-empty string", i)
		}
		validatePage(s, fmt.Sprintf("subsection_analysis[%d]", i), fail)
	}
}

func validatePage(item map[string]any, path string, fail func(string, ...any)) {
	v, present := item["page_number"]
	if !present {
		fail("%s.page_number: missing", path)
		return
	}
	if p, isInt := asInt(v); !isInt || p < 1 {
		fail("%s.page_number: must be a positive integer", path)
	}
}

// ranksFollowScores reports whether a higher rank never has a higher score.
func ranksFollowScores(ranks []int64, scores []float64) bool {
	byRank := make(map[int64]float64, len(ranks))
	for i, r := range ranks {
		byRank[r] = scores[i]
	}
	for r := int64(2); r <= int64(len(ranks)); r++ {
		if byRank[r] > byRank[r-1] {
			return false
		}
	}
	return true
}

// asInt accepts the integer forms a decoded or hand-built document may hold.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
