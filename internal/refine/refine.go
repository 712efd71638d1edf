// Package refine turns raw section text into clean, bounded excerpts.
package refine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
)

// Options bounds the excerpt.
type Options struct {
	// MinSentenceLength drops sentences of this many runes or fewer.
	MinSentenceLength int
	// MaxSentences keeps at most this many sentences.
	MaxSentences int
	// MinRefinedLength is the shortest refined content Section accepts
	// before falling back to the full section text.
	MinRefinedLength int
}

// DefaultOptions returns the reference limits.
func DefaultOptions() Options {
	return Options{
		MinSentenceLength: 20,
		MaxSentences:      10,
		MinRefinedLength:  50,
	}
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "«", `"`, "»", `"`, "″", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-", "−", "-",
	"…", "...",
	"•", " ", "·", " ",
)

// Text cleans text and keeps at most opts.MaxSentences sentences longer
// than opts.MinSentenceLength runes, joined by single spaces. Sentence
// terminators are kept, so Text(Text(x)) == Text(x).
func Text(text string, opts Options) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	clean := normalize(text)

	var kept []string
	for _, s := range splitSentences(clean) {
		if utf8.RuneCountInString(s) <= opts.MinSentenceLength {
			continue
		}
		kept = append(kept, s)
		if opts.MaxSentences > 0 && len(kept) == opts.MaxSentences {
			break
		}
	}
	return strings.Join(kept, " ")
}

// Section refines the section content, falling back to its full text when
// the content alone refines to fewer than opts.MinRefinedLength runes. The
// result may still be empty.
func Section(s corpus.Section, opts Options) string {
	refined := Text(s.Content, opts)
	if utf8.RuneCountInString(refined) >= opts.MinRefinedLength {
		return refined
	}
	full := Text(s.FullText(), opts)
	if utf8.RuneCountInString(full) > utf8.RuneCountInString(refined) {
		return full
	}
	return refined
}

// normalize folds compatibility forms, maps typographic punctuation to
// ASCII, blanks disallowed runes and collapses whitespace.
func normalize(text string) string {
	text = typographic.Replace(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if !allowed(r) || unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}

func allowed(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '(', ')', '-', '"', '\'':
		return true
	}
	return false
}

// splitSentences splits normalized text after each run of . ! or ? that
// is followed by a space. Terminators stay with their sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		if j < len(text) && text[j] == ' ' {
			if s := strings.TrimSpace(text[start:j]); s != "" {
				out = append(out, s)
			}
			start = j + 1
		}
		i = j - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}
