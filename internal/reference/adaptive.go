package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/llm"
)

const (
	StrategyAdaptive = "adaptive"
	// MaxAdaptive 自适应策略最多选取的历史帧数
	MaxAdaptive = 3

	selectMaxTokens = 500
	promptPreview   = 150
)

var selectTemplate = llm.NewTemplate("reference_selection", `You're choosing style references for image #{{.line_number}} in a cinematic lyric video sequence.

Previously generated images (by index):
{{.history}}

Current lyric: "{{.english}} / {{.korean}}"
Visual style: {{.visual_style}}
Story context: {{.story}}

Pick at most {{.max}} previous images whose art style, palette and character designs should carry over.
AVOID images whose composition is hard to vary and tends to be copied by the image model:
shots from behind, over-the-shoulder views, split-screen layouts, extreme top-down framing.
Prefer images with a clear, neutral view of the characters.

Respond in JSON:
{
  "selected_indices": [0, 2],
  "reasoning": "why these images give style continuity without forcing the same composition"
}`)

// Adaptive 由语言模型从历史帧中挑选参考图
type Adaptive struct {
	llm llm.Generator
	log *logrus.Entry
}

func NewAdaptive(gen llm.Generator) *Adaptive {
	return &Adaptive{llm: gen, log: logrus.WithField("component", "reference")}
}

func (*Adaptive) Name() string       { return StrategyAdaptive }
func (*Adaptive) HistoryBased() bool { return true }

type selectResponse struct {
	SelectedIndices []int  `json:"selected_indices"`
	Reasoning       string `json:"reasoning"`
}

func (a *Adaptive) Select(ctx context.Context, req Request) (Selection, error) {
	if len(req.HistoryPrompts) == 0 {
		return Selection{Rationale: "First image, no references"}, nil
	}

	prompt, err := selectTemplate.Render(ctx, map[string]any{
		"line_number":  req.Line.LineNumber,
		"history":      condense(req.HistoryPrompts),
		"english":      req.Line.EnglishText,
		"korean":       req.Line.KoreanText,
		"visual_style": req.Guide.VisualStyle,
		"story":        req.Guide.SegmentStory,
		"max":          MaxAdaptive,
	})
	if err != nil {
		return Selection{}, err
	}
	text, err := a.llm.Generate(ctx, prompt, selectMaxTokens)
	if err != nil {
		return Selection{}, fmt.Errorf("reference selection request: %w", err)
	}
	var resp selectResponse
	if err := llm.ExtractJSON(text, &resp); err != nil {
		return Selection{}, err
	}

	sel := Selection{Rationale: resp.Reasoning}
	if sel.Rationale == "" {
		sel.Rationale = "No reasoning provided"
	}
	limit := len(req.HistoryPaths)
	if len(req.HistoryPrompts) < limit {
		limit = len(req.HistoryPrompts)
	}
	seen := make(map[int]bool, MaxAdaptive)
	for _, idx := range resp.SelectedIndices {
		if idx < 0 || idx >= limit || seen[idx] {
			continue
		}
		seen[idx] = true
		sel.Indices = append(sel.Indices, idx)
		sel.Paths = append(sel.Paths, req.HistoryPaths[idx])
		if len(sel.Indices) == MaxAdaptive {
			break
		}
	}
	a.log.WithField("indices", sel.Indices).Debug("references selected")
	return sel, nil
}

func condense(prompts []string) string {
	var b strings.Builder
	for i, p := range prompts {
		if r := []rune(p); len(r) > promptPreview {
			p = string(r[:promptPreview]) + "..."
		}
		fmt.Fprintf(&b, "Image %d: %s\n", i, p)
	}
	return b.String()
}
