package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"lyricvideo/internal/config"
	"lyricvideo/internal/metrics"
)

// Generator 语言模型的最小调用面
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ChatClient 基于 eino 图编排的对话模型调用
type ChatClient struct {
	runner compose.Runnable[[]*schema.Message, *schema.Message]
	log    *logrus.Entry
}

// NewArkChatClient 使用方舟对话模型创建客户端，Mock 模式下不访问网络
func NewArkChatClient(ctx context.Context, cfg config.ArkConfig) (*ChatClient, error) {
	if cfg.Mock {
		return NewChatClient(ctx, MockChatModel{})
	}
	timeout := cfg.ChatTimeout
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/api/v3",
		HTTPClient: &http.Client{Timeout: timeout},
		Model:      cfg.ChatModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewChatClient(ctx, chatModel)
}

// NewChatClient 将任意对话模型编译为 START -> model -> END 的图
func NewChatClient(ctx context.Context, chatModel model.BaseChatModel) (*ChatClient, error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("failed to add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, err
	}
	runner, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph: %w", err)
	}
	return &ChatClient{runner: runner, log: logrus.WithField("component", "llm")}, nil
}

// Generate 发送单条用户消息并返回文本
func (c *ChatClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	messages := []*schema.Message{schema.UserMessage(prompt)}
	var opts []compose.Option
	if maxTokens > 0 {
		opts = append(opts, compose.WithChatModelOption(model.WithMaxTokens(maxTokens)))
	}
	res, err := c.runner.Invoke(ctx, messages, opts...)
	if err == nil && (res == nil || strings.TrimSpace(res.Content) == "") {
		err = ErrEmptyResponse
	}
	metrics.ObserveLLM(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("graph invocation failed: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"elapsed": time.Since(start).Round(time.Millisecond),
		"chars":   len(res.Content),
	}).Debug("chat completed")
	return res.Content, nil
}
