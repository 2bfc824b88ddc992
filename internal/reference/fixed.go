package reference

import "context"

const (
	StrategyFixed = "fixed"
	// MaxAnchors 固定锚点上限，对应两个角色
	MaxAnchors = 2
)

// FixedAnchors 始终使用角色定妆图，忽略历史
type FixedAnchors struct{}

func NewFixedAnchors() *FixedAnchors { return &FixedAnchors{} }

func (FixedAnchors) Name() string       { return StrategyFixed }
func (FixedAnchors) HistoryBased() bool { return false }

func (FixedAnchors) Select(_ context.Context, req Request) (Selection, error) {
	paths := make([]string, 0, MaxAnchors)
	for _, c := range req.Characters {
		if len(paths) == MaxAnchors {
			break
		}
		if c.ImagePath != "" {
			paths = append(paths, c.ImagePath)
		}
	}
	return Selection{
		Paths:     paths,
		Rationale: "Character designs (male + female portraits)",
	}, nil
}
