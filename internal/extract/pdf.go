package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/logging"
)

// maxTitleRunes bounds a page title taken from its first line.
const maxTitleRunes = 200

// PDF extracts one section per page using pdfcpu page content streams.
// The first non-empty line of a page becomes the section title.
type PDF struct {
	logger *logging.Logger
}

// NewPDF creates a PDF extractor.
func NewPDF(logger *logging.Logger) *PDF {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PDF{logger: logger}
}

// Extract implements Extractor.
func (p *PDF) Extract(ctx context.Context, path string) (res Result) {
	// pdfcpu panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn(ctx, "pdf extraction panicked", zap.String("path", path), zap.Any("panic", r))
			res = degraded(path, fmt.Sprintf("pdf parser panic: %v", r))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn(ctx, "pdf open failed", zap.String("path", path), zap.Error(err))
		return degraded(path, fmt.Sprintf("open: %v", err))
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		p.logger.Warn(ctx, "pdf read failed", zap.String("path", path), zap.Error(err))
		return degraded(path, fmt.Sprintf("pdfcpu read: %v", err))
	}

	res = Result{
		Path:     path,
		Pages:    pdfCtx.PageCount,
		Sections: []corpus.RawSection{},
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if ctx.Err() != nil {
			res.Warning = "extraction canceled"
			break
		}
		text := pageText(pdfCtx, pageNr)
		if text == "" {
			continue
		}
		pages = append(pages, text)
		if s, ok := pageSection(text, pageNr); ok {
			res.Sections = append(res.Sections, s)
		}
	}
	res.FullText = strings.Join(pages, "\n")

	if len(res.Sections) == 0 && res.Warning == "" {
		res.Warning = "no text content found in PDF"
	}
	return res
}

func pageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return ContentText(data)
}

// pageSection splits page text into a title line and the remaining content.
func pageSection(text string, pageNr int) (corpus.RawSection, bool) {
	lines := strings.Split(text, "\n")
	first := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return corpus.RawSection{}, false
	}

	title := strings.TrimSpace(lines[first])
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}

	var rest []string
	for _, l := range lines[first+1:] {
		if l = strings.TrimSpace(l); l != "" {
			rest = append(rest, l)
		}
	}
	return corpus.RawSection{
		Title:      title,
		Content:    strings.Join(rest, "\n"),
		PageNumber: pageNr,
	}, true
}
