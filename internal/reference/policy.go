package reference

import (
	"context"
	"fmt"

	"lyricvideo/internal/llm"
	"lyricvideo/internal/model"
)

// Request 参考图选择的输入
type Request struct {
	HistoryPrompts []string
	HistoryPaths   []string
	Line           model.LyricLine
	Guide          model.StyleGuide
	Characters     []model.CharacterReference
}

// Selection 选中的参考图，Indices 只有基于历史的策略才会填充
type Selection struct {
	Paths     []string
	Indices   []int
	Rationale string
}

// Policy 参考图选择策略
type Policy interface {
	Name() string
	// HistoryBased 为 true 时策略从已生成的帧中挑选
	HistoryBased() bool
	Select(ctx context.Context, req Request) (Selection, error)
}

// NewPolicy 按名称创建策略
func NewPolicy(name string, gen llm.Generator) (Policy, error) {
	switch name {
	case "", StrategyFixed:
		return NewFixedAnchors(), nil
	case StrategyAdaptive:
		return NewAdaptive(gen), nil
	default:
		return nil, fmt.Errorf("unknown reference strategy %q", name)
	}
}
