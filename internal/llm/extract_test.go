package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type styleShape struct {
	VisualStyle  string `json:"visual_style"`
	SegmentStory string `json:"segment_story"`
}

func TestExtractJSON_AllForms(t *testing.T) {
	want := styleShape{VisualStyle: "watercolor, soft pastel", SegmentStory: "two friends {meet} at dawn"}
	body := `{"visual_style": "watercolor, soft pastel", "segment_story": "two friends {meet} at dawn"}`

	cases := map[string]string{
		"bare":            body,
		"bare with space": "\n  " + body + "\n",
		"fenced json":     "```json\n" + body + "\n```",
		"fenced no tag":   "```\n" + body + "\n```",
		"fenced in prose": "Here is the plan:\n```json\n" + body + "\n```\nHope it helps!",
		"prose":           "Sure! Here you go: " + body + " Let me know if you need changes.",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			var got styleShape
			require.NoError(t, ExtractJSON(text, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	text := strings.Repeat("no json here ", 40)
	var got styleShape
	err := ExtractJSON(text, &got)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Len(t, []rune(perr.Raw), rawPrefixLen)
	assert.True(t, strings.HasPrefix(text, perr.Raw))
}

func TestExtractJSON_BrokenJSON(t *testing.T) {
	var got styleShape
	err := ExtractJSON(`{"visual_style": "oops",`, &got)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseError_Unwrap(t *testing.T) {
	err := NewParseError("{}", ErrMissingField)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "missing required field")
}
