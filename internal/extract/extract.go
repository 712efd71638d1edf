// Package extract turns input files into raw document sections.
//
// Extraction never fails a run: an unreadable file yields a Result with no
// sections and a Warning, and the ranking pipeline proceeds with whatever
// the remaining files produced.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/logging"
)

var (
	// ErrNoInput indicates the input directory holds no supported files.
	ErrNoInput = errors.New("no input documents")

	// ErrInputDir indicates the input directory is missing or unreadable.
	ErrInputDir = errors.New("input directory unavailable")
)

// Result is the outcome of extracting one file.
type Result struct {
	Path     string
	Pages    int
	Sections []corpus.RawSection
	FullText string
	// Warning is set when extraction degraded to an empty section list.
	Warning string
}

// Extractor extracts sections from a single file.
type Extractor interface {
	Extract(ctx context.Context, path string) Result
}

// Supported file extensions.
const (
	ExtPDF  = ".pdf"
	ExtJSON = ".json"
)

// Auto dispatches on file extension.
type Auto struct {
	pdf  Extractor
	json Extractor
}

// NewAuto returns an extractor handling PDF and pre-extracted JSON files.
func NewAuto(logger *logging.Logger) *Auto {
	return &Auto{
		pdf:  NewPDF(logger),
		json: NewJSON(logger),
	}
}

// Extract implements Extractor.
func (a *Auto) Extract(ctx context.Context, path string) Result {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtPDF:
		return a.pdf.Extract(ctx, path)
	case ExtJSON:
		return a.json.Extract(ctx, path)
	default:
		return degraded(path, fmt.Sprintf("unsupported file type %q", filepath.Ext(path)))
	}
}

// Supported reports whether path has an extension Auto handles.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtPDF, ExtJSON:
		return true
	}
	return false
}

// ListInputs returns the supported files directly under dir, sorted by name.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputDir, dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDocuments extracts every supported file in dir, in name order.
// Files that fail to extract become documents with no sections.
func LoadDocuments(ctx context.Context, ex Extractor, dir string) ([]corpus.Document, error) {
	paths, err := ListInputs(dir)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	docs := make([]corpus.Document, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading documents: %w", err)
		}
		res := ex.Extract(ctx, p)
		if res.Warning != "" {
			logger.Warn(ctx, "extraction degraded",
				zap.String("path", p),
				zap.String("warning", res.Warning),
			)
		}
		logger.Debug(ctx, "document extracted",
			zap.String("path", p),
			zap.Int("pages", res.Pages),
			zap.Int("sections", len(res.Sections)),
		)
		docs = append(docs, corpus.Document{
			Name:     filepath.Base(p),
			Sections: res.Sections,
		})
	}
	return docs, nil
}

func degraded(path, warning string) Result {
	return Result{
		Path:     path,
		Sections: []corpus.RawSection{},
		Warning:  warning,
	}
}
