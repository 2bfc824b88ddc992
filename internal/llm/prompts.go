package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template Go 模板格式的用户提示词
type Template struct {
	name string
	tpl  prompt.ChatTemplate
}

// NewTemplate 创建提示词模板
func NewTemplate(name, text string) *Template {
	return &Template{
		name: name,
		tpl:  prompt.FromMessages(schema.GoTemplate, schema.UserMessage(text)),
	}
}

// Render 渲染模板为纯文本
func (t *Template) Render(ctx context.Context, vars map[string]any) (string, error) {
	messages, err := t.tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.name, err)
	}
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n"), nil
}
