package refine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
)

func TestText(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace and keeps terminators",
			in:   "The old port of Marseille\n\tis lively at night.   Short one.  Restaurants line the harbour front!",
			want: "The old port of Marseille is lively at night. Restaurants line the harbour front!",
		},
		{
			name: "ligatures and smart quotes",
			in:   "The ﬁnest “coastal” towns — Nice and Cannes… are all worth a long visit.",
			want: `The finest "coastal" towns - Nice and Cannes... are all worth a long visit.`,
		},
		{
			name: "symbols become spaces",
			in:   "Budget: €20 per person • includes drinks & snacks ★★★",
			want: "Budget: 20 per person includes drinks snacks",
		},
		{
			name: "control characters dropped",
			in:   "Check-in opens at 3pm\x00\x07 every day of the week.",
			want: "Check-in opens at 3pm every day of the week.",
		},
		{
			name: "terminator runs stay together",
			in:   "What a wonderful evening it was!!! Everyone should try the bouillabaisse?!",
			want: "What a wonderful evening it was!!! Everyone should try the bouillabaisse?!",
		},
		{name: "empty", in: "", want: ""},
		{name: "only short sentences", in: "Hi. Yes. No.", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in, opts))
		})
	}
}

func TestText_MaxSentences(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString("This sentence is long enough to be kept. ")
	}
	out := Text(b.String(), DefaultOptions())
	assert.Equal(t, 10, strings.Count(out, "kept."))
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"The old port\n\nis lively at night.   Short one.  Restaurants line the harbour front!",
		"Nice’s promenade… stretches 7km.Another clause without space. And a final sentence that never ends",
		"(Parentheses) and \"quotes\" survive; colons: too. Tabs\tand nbsp collapse nicely here.",
		strings.Repeat("Repeat this long enough sentence please. ", 20),
	}
	for _, in := range inputs {
		once := Text(in, DefaultOptions())
		assert.Equal(t, once, Text(once, DefaultOptions()), "input %q", in)
	}
}

func TestSection_FallbackToFullText(t *testing.T) {
	s := corpus.Section{
		Document:   "guide.pdf",
		Title:      "Nightlife in Nice: bars and clubs on the old town streets",
		Content:    "Open late.",
		PageNumber: 4,
	}
	out := Section(s, DefaultOptions())
	assert.Equal(t, "Nightlife in Nice: bars and clubs on the old town streets Open late.", out)
}

func TestSection_UsesContentWhenLongEnough(t *testing.T) {
	s := corpus.Section{
		Title:   "Beaches",
		Content: "The beaches of Antibes are sandy and calm. Families love the shallow water near Juan-les-Pins.",
	}
	out := Section(s, DefaultOptions())
	require.GreaterOrEqual(t, utf8.RuneCountInString(out), 50)
	assert.False(t, strings.HasPrefix(out, "Beaches "))
}

func TestSection_CanBeEmpty(t *testing.T) {
	assert.Empty(t, Section(corpus.Section{Title: "Hi", Content: "Ok."}, DefaultOptions()))
}
