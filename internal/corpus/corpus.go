// Package corpus flattens extracted documents into uniform section records.
package corpus

import "strings"

// DefaultTitle is used for sections the extractor could not title.
const DefaultTitle = "Untitled Section"

// RawSection is one section as produced by the extraction collaborator.
type RawSection struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
}

// Document is one named input document and its extracted sections.
// An empty Sections slice means extraction found nothing or failed.
type Document struct {
	Name     string       `json:"name"`
	Sections []RawSection `json:"sections"`
}

// Section is a read-only candidate for ranking.
type Section struct {
	Document   string
	Title      string
	Content    string
	PageNumber int
	// Index is the position in the flattened corpus. It is the tie-breaker
	// for every ordering in the ranking pipeline.
	Index int
}

// FullText returns title and content joined by a single space.
func (s Section) FullText() string {
	return s.Title + " " + s.Content
}

// Build flattens documents in order, then sections in order.
// Missing titles get DefaultTitle and page numbers below 1 become 1.
// An empty corpus yields an empty, non-nil slice.
func Build(docs []Document) []Section {
	total := 0
	for _, d := range docs {
		total += len(d.Sections)
	}

	sections := make([]Section, 0, total)
	for _, d := range docs {
		for _, raw := range d.Sections {
			title := strings.TrimSpace(raw.Title)
			if title == "" {
				title = DefaultTitle
			}
			page := raw.PageNumber
			if page < 1 {
				page = 1
			}
			sections = append(sections, Section{
				Document:   d.Name,
				Title:      title,
				Content:    raw.Content,
				PageNumber: page,
				Index:      len(sections),
			})
		}
	}
	return sections
}

// FullTexts returns FullText for every section, in order.
func FullTexts(sections []Section) []string {
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.FullText()
	}
	return texts
}

// Names returns the document names in input order.
func Names(docs []Document) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names
}
