package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithRequestID(ctx, "req-42")
	ctx = WithCollection(ctx, "collection 1")

	fields := ContextFields(ctx)
	keys := make(map[string]string, len(fields))
	for _, f := range fields {
		keys[f.Key] = f.String
	}
	assert.Equal(t, "req-42", keys["request.id"])
	assert.Equal(t, "collection 1", keys["collection"])
}

func TestWithRequestID_Validation(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantPanic bool
	}{
		{name: "valid", id: "abc_123-x"},
		{name: "empty", id: "", wantPanic: true},
		{name: "spaces", id: "has space", wantPanic: true},
		{name: "too long", id: strings.Repeat("a", maxIDLen+1), wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func() { WithRequestID(context.Background(), tt.id) }
			if tt.wantPanic {
				assert.Panics(t, fn)
				return
			}
			assert.NotPanics(t, fn)
		})
	}
}

func TestWithCollection_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithCollection(ctx, ""))
	assert.Equal(t, "", CollectionFromContext(ctx))
}
