package output

import (
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/personarank/internal/ranking"
)

// Repair returns a copy of doc with every schema violation fixed by
// default-filling, truncation, renumbering or dropping, and a description
// of each fix. It never panics and never modifies doc.
func Repair(doc map[string]any) (map[string]any, []string) {
	return repairAt(doc, time.Now())
}

func repairAt(doc map[string]any, now time.Time) (map[string]any, []string) {
	var fixes []string
	fix := func(format string, args ...any) {
		fixes = append(fixes, fmt.Sprintf(format, args...))
	}

	out, _ := deepCopy(doc).(map[string]any)
	if out == nil {
		out = map[string]any{}
		fix("created empty document")
	}

	meta, ok := out["metadata"].(map[string]any)
	if !ok {
		if _, present := out["metadata"]; present {
			fix("replaced non-object metadata")
		} else {
			fix("added missing metadata")
		}
		meta = map[string]any{}
		out["metadata"] = meta
	}
	repairMetadata(meta, now, fix)

	sections := repairSections(listAt(out, "extracted_sections", fix), fix)
	out["extracted_sections"] = sections

	out["subsection_analysis"] = repairSubsections(listAt(out, "subsection_analysis", fix), fix)

	return out, fixes
}

func listAt(doc map[string]any, key string, fix func(string, ...any)) []any {
	raw, present := doc[key]
	if !present {
		fix("added missing %s", key)
		return []any{}
	}
	list, ok := raw.([]any)
	if !ok {
		fix("replaced non-array %s with an empty array", key)
		return []any{}
	}
	return list
}

func repairMetadata(meta map[string]any, now time.Time, fix func(string, ...any)) {
	switch docs := meta["input_documents"].(type) {
	case []any:
		kept := make([]any, 0, len(docs))
		for i, d := range docs {
			if _, ok := d.(string); ok {
				kept = append(kept, d)
				continue
			}
			fix("dropped non-string metadata.input_documents[%d]", i)
		}
		meta["input_documents"] = kept
	default:
		if _, present := meta["input_documents"]; present {
			fix("replaced non-array metadata.input_documents with an empty array")
		} else {
			fix("added missing metadata.input_documents")
		}
		meta["input_documents"] = []any{}
	}

	for _, k := range []string{"persona", "job_to_be_done"} {
		if _, ok := meta[k].(string); ok {
			continue
		}
		fix("set metadata.%s to %q", k, Placeholder)
		meta[k] = Placeholder
	}

	if ts, ok := meta["processing_timestamp"].(string); !ok || ts == "" {
		fix("set metadata.processing_timestamp to the current time")
		meta["processing_timestamp"] = now.Format(TimestampLayout)
	}

	if raw, present := meta["counts"]; present && raw != nil {
		counts, ok := raw.(map[string]any)
		valid := ok
		if ok {
			for _, k := range countsKeys {
				if v, has := counts[k]; has {
					if n, isInt := asInt(v); !isInt || n < 0 {
						valid = false
					}
				}
			}
		}
		if !valid {
			fix("removed invalid metadata.counts")
			delete(meta, "counts")
		}
	}
}

func repairSections(list []any, fix func(string, ...any)) []any {
	sections := make([]map[string]any, 0, len(list))
	for i, raw := range list {
		s, ok := raw.(map[string]any)
		if !ok {
			fix("dropped non-object extracted_sections[%d]", i)
			continue
		}
		sections = append(sections, s)
	}

	if len(sections) > ranking.MaxTopK {
		fix("truncated extracted_sections from %d to %d entries", len(sections), ranking.MaxTopK)
		sections = sections[:ranking.MaxTopK]
	}

	for i, s := range sections {
		if _, ok := s["document"].(string); !ok {
			fix("set extracted_sections[%d].document to %q", i, positional("Document", i))
			s["document"] = positional("Document", i)
		}
		if _, ok := s["section_title"].(string); !ok {
			fix("set extracted_sections[%d].section_title to %q", i, positional("Section", i))
			s["section_title"] = positional("Section", i)
		}
		repairPage(s, fmt.Sprintf("extracted_sections[%d]", i), fix)
		if v, present := s["relevance_score"]; present {
			if _, ok := asFloat(v); !ok {
				fix("removed invalid extracted_sections[%d].relevance_score", i)
				delete(s, "relevance_score")
			}
		}
	}

	renumber(sections, fix)

	out := make([]any, len(sections))
	for i, s := range sections {
		out[i] = s
	}
	return out
}

// renumber makes importance_rank a permutation of 1..n ordered by
// relevance_score when every section has one, else keeps valid ranks and
// falls back to list position.
func renumber(sections []map[string]any, fix func(string, ...any)) {
	n := len(sections)
	if n == 0 {
		return
	}

	scores := make([]float64, n)
	allScored := true
	for i, s := range sections {
		f, ok := asFloat(s["relevance_score"])
		if !ok {
			allScored = false
			break
		}
		scores[i] = f
	}

	ranks := make([]int64, n)
	valid := true
	seen := map[int64]bool{}
	for i, s := range sections {
		r, ok := asInt(s["importance_rank"])
		if !ok || r < 1 || r > int64(n) || seen[r] {
			valid = false
			break
		}
		seen[r] = true
		ranks[i] = r
	}
	if valid && (!allScored || ranksFollowScores(ranks, scores)) {
		return
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if allScored {
		sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
		fix("renumbered extracted_sections importance_rank by relevance_score")
	} else {
		fix("renumbered extracted_sections importance_rank by position")
	}
	for rank, idx := range order {
		sections[idx]["importance_rank"] = rank + 1
	}
	sorted := make([]map[string]any, n)
	for i, idx := range order {
		sorted[i] = sections[idx]
	}
	copy(sections, sorted)
}

func repairSubsections(list []any, fix func(string, ...any)) []any {
	out := make([]any, 0, len(list))
	for i, raw := range list {
		s, ok := raw.(map[string]any)
		if !ok {
			fix("dropped non-object subsection_analysis[%d]", i)
			continue
		}
		if text, ok := s["refined_text"].(string); !ok || text == "" {
			fix("dropped subsection_analysis[%d] with empty refined_text", i)
			continue
		}
		if _, ok := s["document"].(string); !ok {
			fix("set subsection_analysis[%d].document to %q", i, positional("Document", i))
			s["document"] = positional("Document", i)
		}
		repairPage(s, fmt.Sprintf("subsection_analysis[%d]", i), fix)
		out = append(out, s)
	}
	return out
}

func repairPage(item map[string]any, path string, fix func(string, ...any)) {
	if p, ok := asInt(item["page_number"]); ok && p >= 1 {
		return
	}
	fix("set %s.page_number to 1", path)
	item["page_number"] = 1
}

func positional(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i+1)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil
		}
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, val := range t {
			l[i] = deepCopy(val)
		}
		return l
	default:
		return v
	}
}

// Report describes what ValidateAndRepair found and changed.
type Report struct {
	Valid    bool
	Errors   []string
	Repaired bool
	Fixes    []string
}

// ValidateAndRepair validates rec and, if needed, returns a repaired copy.
// A valid record is returned unchanged.
func ValidateAndRepair(rec *Record) (*Record, Report) {
	if rec == nil {
		rec = &Record{}
	}
	doc, err := ToMap(rec)
	if err != nil {
		doc = map[string]any{}
	}
	valid, errs := Validate(doc)
	report := Report{Valid: valid, Errors: errs}
	if valid {
		return rec, report
	}

	fixed, fixes := Repair(doc)
	report.Repaired = true
	report.Fixes = fixes

	out, err := FromMap(fixed)
	if err != nil {
		report.Fixes = append(report.Fixes, fmt.Sprintf("could not rebuild record: %v", err))
		return rec, report
	}
	return out, report
}
