package tools

import (
	"context"
	"encoding/json"
	"errors"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"lyricvideo/internal/model"
	"lyricvideo/internal/service"
)

// VideoRunner 执行一次歌词视频生成
type VideoRunner interface {
	Run(ctx context.Context, req model.VideoGenerationRequest) (*service.Result, error)
}

// LyricVideoTool 实现eino框架的歌词视频生成工具
type LyricVideoTool struct {
	runner VideoRunner
}

// LyricVideoToolResp 生成结果
type LyricVideoToolResp struct {
	*service.Result
	Message string `json:"message"`
}

func NewLyricVideoTool(runner VideoRunner) *LyricVideoTool {
	return &LyricVideoTool{runner: runner}
}

// Info 获取歌词视频工具信息
func (t *LyricVideoTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"song_id":         {Type: schema.String, Required: true, Desc: "歌曲ID"},
		"start_line":      {Type: schema.Integer, Required: false, Desc: "起始行号，默认1"},
		"end_line":        {Type: schema.Integer, Required: false, Desc: "结束行号，默认最后一行"},
		"output_filename": {Type: schema.String, Required: false, Desc: "输出文件名"},
		"upload":          {Type: schema.Boolean, Required: false, Desc: "是否上传到Google Drive"},
		"custom_input": {Type: schema.Object, Required: false, Desc: "自定义故事与角色描述", SubParams: map[string]*schema.ParameterInfo{
			"story_description":            {Type: schema.String, Desc: "故事梗概，提供后跳过风格推断"},
			"character_male_description":   {Type: schema.String, Desc: "男性角色外观"},
			"character_female_description": {Type: schema.String, Desc: "女性角色外观"},
			"is_conversation":              {Type: schema.Boolean, Desc: "是否为双人对话"},
		}},
	}
	return &schema.ToolInfo{
		Name:        "lyric_video_generate",
		Desc:        "为一段歌词逐行生成插画并合成带三行字幕的竖屏视频",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行歌词视频生成
func (t *LyricVideoTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var req model.VideoGenerationRequest
	if err := json.Unmarshal([]byte(argumentsInJSON), &req); err != nil {
		return "", err
	}
	if req.SongID == "" {
		return "", errors.New("song_id required")
	}
	res, err := t.runner.Run(ctx, req)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(LyricVideoToolResp{Result: res, Message: "视频生成完成"})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*LyricVideoTool)(nil)
