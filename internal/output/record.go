// Package output assembles, validates, repairs and persists result records.
package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/personarank/internal/ranking"
)

// TimestampLayout is ISO-8601 with microseconds and zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Placeholder fills missing metadata strings during repair.
const Placeholder = "Unknown"

// Record is the result of one ranking request.
type Record struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections"`
	SubsectionAnalysis []Subsection       `json:"subsection_analysis"`
}

// Metadata describes the request that produced a record.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
	Counts              *Counts  `json:"counts,omitempty"`
}

// Counts tracks how many sections survived each step.
type Counts struct {
	Sections   int `json:"sections"`
	Candidates int `json:"candidates"`
	Extracted  int `json:"extracted"`
	Refined    int `json:"refined"`
}

// ExtractedSection is one ranked section.
type ExtractedSection struct {
	Document       string   `json:"document"`
	SectionTitle   string   `json:"section_title"`
	ImportanceRank int      `json:"importance_rank"`
	PageNumber     int      `json:"page_number"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// Subsection is the refined excerpt of a ranked section.
type Subsection struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Selected is a ranked section ready for output, best first.
type Selected struct {
	Document    string
	Title       string
	PageNumber  int
	Score       float64
	RefinedText string
}

// Input carries everything Assemble needs.
type Input struct {
	Documents []string
	Persona   string
	Job       string
	Selected  []Selected
	// Sections and Candidates feed Metadata.Counts.
	Sections   int
	Candidates int
	// IncludeScores emits relevance_score on extracted sections.
	IncludeScores bool
	Now           time.Time
}

// Assemble builds a record. Ranks follow the order of in.Selected, at most
// ranking.MaxTopK are kept and subsections with empty refined text
// are dropped.
func Assemble(in Input) *Record {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	docs := in.Documents
	if docs == nil {
		docs = []string{}
	}

	selected := in.Selected
	if len(selected) > ranking.MaxTopK {
		selected = selected[:ranking.MaxTopK]
	}

	rec := &Record{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             in.Persona,
			JobToBeDone:         in.Job,
			ProcessingTimestamp: now.Format(TimestampLayout),
		},
		ExtractedSections:  make([]ExtractedSection, 0, len(selected)),
		SubsectionAnalysis: make([]Subsection, 0, len(selected)),
	}

	for i, s := range selected {
		es := ExtractedSection{
			Document:       s.Document,
			SectionTitle:   s.Title,
			ImportanceRank: i + 1,
			PageNumber:     max(s.PageNumber, 1),
		}
		if in.IncludeScores {
			score := s.Score
			es.RelevanceScore = &score
		}
		rec.ExtractedSections = append(rec.ExtractedSections, es)

		if s.RefinedText == "" {
			continue
		}
		rec.SubsectionAnalysis = append(rec.SubsectionAnalysis, Subsection{
			Document:    s.Document,
			RefinedText: s.RefinedText,
			PageNumber:  max(s.PageNumber, 1),
		})
	}

	rec.Metadata.Counts = &Counts{
		Sections:   in.Sections,
		Candidates: in.Candidates,
		Extracted:  len(rec.ExtractedSections),
		Refined:    len(rec.SubsectionAnalysis),
	}
	return rec
}

// ToMap converts a record to its generic JSON form.
func ToMap(rec *Record) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return doc, nil
}

// FromMap converts a generic JSON document to a record. Unknown fields
// are dropped.
func FromMap(doc map[string]any) (*Record, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if rec.Metadata.InputDocuments == nil {
		rec.Metadata.InputDocuments = []string{}
	}
	if rec.ExtractedSections == nil {
		rec.ExtractedSections = []ExtractedSection{}
	}
	if rec.SubsectionAnalysis == nil {
		rec.SubsectionAnalysis = []Subsection{}
	}
	return &rec, nil
}
