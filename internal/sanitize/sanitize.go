// Package sanitize validates user-supplied names that become path segments.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxCollectionLength bounds a collection name, the usual filesystem limit
// for one path component.
const MaxCollectionLength = 255

var (
	// ErrEmptyCollection indicates a blank collection name.
	ErrEmptyCollection = errors.New("collection name cannot be empty")

	// ErrInvalidCollection indicates a collection name that is not a single
	// plain directory name.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// Collection validates a collection name and returns it trimmed.
//
// A collection names one directory under the input and output roots, so
// it must be a single path segment: no separators, no "." or "..", and no
// control characters.
//
//	"collection1"       -> "collection1"
//	" Travel Guides "   -> "Travel Guides"
//	"../etc", "a/b", "" -> error
func Collection(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCollection
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	if len(name) > MaxCollectionLength {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrInvalidCollection, MaxCollectionLength)
	}
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidCollection, name)
		case r == unicode.ReplacementChar || unicode.IsControl(r):
			return "", fmt.Errorf("%w: %q contains invalid characters", ErrInvalidCollection, name)
		}
	}
	return name, nil
}
