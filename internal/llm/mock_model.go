package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// mockReply 覆盖所有 JSON 调用方需要的字段
const mockReply = `{
  "visual_style": "Flat vector illustration, warm yellows and soft blues, gentle lighting",
  "segment_story": "Two strangers meet on a rainy street and help each other find the way",
  "is_conversation": true,
  "creative_reasoning": "Mock mode: alternate framing for variety",
  "seedream_prompt": "Medium shot, two young travelers sharing an umbrella on a rainy street, flat vector style",
  "use_previous_as_reference": false,
  "selected_indices": [],
  "reasoning": "Mock mode"
}`

// MockChatModel 离线运行使用的对话模型，按提示词类型返回固定内容
type MockChatModel struct{}

func (MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	var last string
	if len(input) > 0 {
		last = input[len(input)-1].Content
	}
	if strings.Contains(last, "Respond in JSON") {
		return schema.AssistantMessage(mockReply, nil), nil
	}
	return schema.AssistantMessage("Wide establishing shot, a young traveler standing under a glowing street lamp, flat vector style", nil), nil
}

func (m MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
