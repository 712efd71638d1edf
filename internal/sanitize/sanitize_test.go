package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: "collection1", want: "collection1"},
		{name: "trimmed", input: "  Travel Guides ", want: "Travel Guides"},
		{name: "unicode", input: "Côte d'Azur", want: "Côte d'Azur"},
		{name: "empty", input: "   ", wantErr: ErrEmptyCollection},
		{name: "dot", input: ".", wantErr: ErrInvalidCollection},
		{name: "dotdot", input: "..", wantErr: ErrInvalidCollection},
		{name: "traversal", input: "../etc", wantErr: ErrInvalidCollection},
		{name: "nested", input: "a/b", wantErr: ErrInvalidCollection},
		{name: "backslash", input: `a\b`, wantErr: ErrInvalidCollection},
		{name: "control", input: "a\x00b", wantErr: ErrInvalidCollection},
		{name: "invalid utf8", input: "a\xffb", wantErr: ErrInvalidCollection},
		{name: "too long", input: strings.Repeat("x", MaxCollectionLength+1), wantErr: ErrInvalidCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collection(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
