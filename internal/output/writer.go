package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrPersist marks a failure to write a record. It is fatal for the request.
var ErrPersist = errors.New("persisting result failed")

// Writer persists records as UTF-8 JSON.
type Writer struct {
	// Perm is applied to written files. Defaults to 0o644.
	Perm os.FileMode
}

// NewWriter creates a Writer with default permissions.
func NewWriter() *Writer {
	return &Writer{Perm: 0o644}
}

// Write encodes rec with two-space indentation and no HTML escaping and
// replaces path atomically. Parent directories are created as needed.
func (w *Writer) Write(ctx context.Context, rec *Record, path string) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrPersist)
	}
	return w.write(ctx, rec, path)
}

// WriteDocument writes a generic document, such as a repaired file that may
// carry fields Record does not model.
func (w *Writer) WriteDocument(ctx context.Context, doc map[string]any, path string) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrPersist)
	}
	return w.write(ctx, doc, path)
}

func (w *Writer) write(ctx context.Context, v any, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrPersist, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrPersist, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrPersist, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: syncing %s: %w", ErrPersist, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrPersist, tmpName, err)
	}

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrPersist, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: renaming to %s: %w", ErrPersist, path, err)
	}
	committed = true
	return nil
}

// Encode renders v the way Writer stores it.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// maxDocumentSize bounds files read by Load.
const maxDocumentSize = 16 << 20

// Load reads a result file into its generic form for validation.
func Load(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxDocumentSize {
		return nil, fmt.Errorf("reading %s: file too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
