package tools

import (
	"context"
	"encoding/json"
	"errors"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"lyricvideo/internal/volc"
)

// ImageGenerator 单张图片生成
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req volc.ImageRequest) (string, error)
}

// ImageTool 以 eino 工具形式暴露 Seedream 单图生成
type ImageTool struct {
	images ImageGenerator
	Size   string
}

type ImageToolArgs struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt"`
	Image          any      `json:"image"`
	Images         []string `json:"images"`
	Size           string   `json:"size"`
}

type ImageToolResp struct {
	Images []string `json:"images"`
	Count  int      `json:"count"`
}

func NewImageTool(images ImageGenerator, size string) *ImageTool {
	return &ImageTool{images: images, Size: size}
}

func (t *ImageTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"prompt":          {Type: schema.String, Required: true, Desc: "图片提示词，以镜头角度开头"},
		"negative_prompt": {Type: schema.String, Required: false, Desc: "负向提示词"},
		"size":            {Type: schema.String, Required: false, Desc: "输出分辨率，如1080x1080"},
		"images":          {Type: schema.Array, Required: false, Desc: "参考图URL或data URI", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
	}
	return &schema.ToolInfo{
		Name:        "image_generate",
		Desc:        "调用Seedream 4.0生成单张图片，支持最多10张参考图",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *ImageTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args ImageToolArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	if args.Prompt == "" {
		return "", errors.New("prompt required")
	}
	var refs []string
	switch v := args.Image.(type) {
	case string:
		if v != "" {
			refs = append(refs, v)
		}
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok && s != "" {
				refs = append(refs, s)
			}
		}
	}
	refs = append(refs, args.Images...)

	size := args.Size
	if size == "" {
		size = t.Size
	}
	url, err := t.images.GenerateImage(ctx, volc.ImageRequest{
		Prompt:         args.Prompt,
		NegativePrompt: args.NegativePrompt,
		Size:           size,
		References:     refs,
	})
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(ImageToolResp{Images: []string{url}, Count: 1})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*ImageTool)(nil)
