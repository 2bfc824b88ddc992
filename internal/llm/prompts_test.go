package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Render(t *testing.T) {
	tpl := NewTemplate("demo", `Style: {{.style}}
{{range $i, $p := .history}}Image {{$i}}: {{$p}}
{{end}}Respond in JSON: {"seedream_prompt": "..."}`)

	out, err := tpl.Render(context.Background(), map[string]any{
		"style":   "ink wash",
		"history": []string{"wide shot", "close-up"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Style: ink wash\nImage 0: wide shot\nImage 1: close-up\nRespond in JSON: {\"seedream_prompt\": \"...\"}", out)
}
