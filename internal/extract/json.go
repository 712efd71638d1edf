package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/logging"
)

// MaxJSONSize bounds pre-extracted section files.
const MaxJSONSize = 32 << 20

// JSON loads sections that were extracted ahead of time.
//
// Expected layout:
//
//	{"pages": 3, "sections": [{"title": "...", "content": "...", "page_number": 1}]}
type JSON struct {
	logger *logging.Logger
}

// NewJSON creates a pre-extracted section loader.
func NewJSON(logger *logging.Logger) *JSON {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JSON{logger: logger}
}

type jsonFile struct {
	Pages    int                 `json:"pages"`
	Sections []corpus.RawSection `json:"sections"`
}

// Extract implements Extractor.
func (j *JSON) Extract(ctx context.Context, path string) Result {
	f, err := j.read(path)
	if err != nil {
		j.logger.Warn(ctx, "json extraction failed", zap.String("path", path), zap.Error(err))
		return degraded(path, err.Error())
	}

	sections := make([]corpus.RawSection, 0, len(f.Sections))
	var full strings.Builder
	pages := f.Pages
	for _, s := range f.Sections {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == "" {
			continue
		}
		sections = append(sections, s)
		if s.PageNumber > pages {
			pages = s.PageNumber
		}
		if full.Len() > 0 {
			full.WriteByte('\n')
		}
		full.WriteString(s.Title)
		full.WriteByte('\n')
		full.WriteString(s.Content)
	}

	return Result{
		Path:     path,
		Pages:    pages,
		Sections: sections,
		FullText: full.String(),
	}
}

func (j *JSON) read(path string) (*jsonFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxJSONSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxJSONSize {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxJSONSize)
	}

	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &f, nil
}
