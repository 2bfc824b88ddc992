package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricvideo/internal/config"
)

type fakeChatModel struct {
	reply     string
	err       error
	got       []*schema.Message
	maxTokens *int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	f.maxTokens = model.GetCommonOptions(nil, opts...).MaxTokens
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestChatClient_Generate(t *testing.T) {
	fake := &fakeChatModel{reply: "Close-up shot of a girl laughing"}
	client, err := NewChatClient(context.Background(), fake)
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "draw the first line", 500)
	require.NoError(t, err)
	assert.Equal(t, "Close-up shot of a girl laughing", out)

	require.Len(t, fake.got, 1)
	assert.Equal(t, schema.User, fake.got[0].Role)
	assert.Equal(t, "draw the first line", fake.got[0].Content)
	require.NotNil(t, fake.maxTokens)
	assert.Equal(t, 500, *fake.maxTokens)
}

func TestChatClient_EmptyResponse(t *testing.T) {
	client, err := NewChatClient(context.Background(), &fakeChatModel{reply: "   "})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", 0)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatClient_ModelError(t *testing.T) {
	boom := errors.New("upstream unavailable")
	client, err := NewChatClient(context.Background(), &fakeChatModel{err: boom})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), boom.Error())
}

func TestArkChatClient_MockMode(t *testing.T) {
	client, err := NewArkChatClient(context.Background(), config.ArkConfig{Mock: true})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "Respond in JSON:\n{}", 800)
	require.NoError(t, err)
	var out struct {
		SeedreamPrompt string `json:"seedream_prompt"`
		VisualStyle    string `json:"visual_style"`
	}
	require.NoError(t, ExtractJSON(text, &out))
	assert.NotEmpty(t, out.SeedreamPrompt)
	assert.NotEmpty(t, out.VisualStyle)

	text, err = client.Generate(context.Background(), "First lyric line: \"hi / 안녕\"", 500)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Wide establishing shot"))
}
