package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lyricvideo/internal/mocks"
	"lyricvideo/internal/model"
	"lyricvideo/internal/service"
	"lyricvideo/internal/volc"
)

func TestImageTool_InvokableRun(t *testing.T) {
	images := mocks.NewMockImageService(t)
	images.On("GenerateImage", mock.Anything, volc.ImageRequest{
		Prompt:     "Close-up, traveler smiling",
		Size:       "1080x1080",
		References: []string{"https://ref/a.jpg", "https://ref/b.jpg"},
	}).Return("https://img/out.jpg", nil).Once()

	out, err := NewImageTool(images, "1080x1080").InvokableRun(context.Background(),
		`{"prompt":"Close-up, traveler smiling","image":["https://ref/a.jpg"],"images":["https://ref/b.jpg"]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":["https://img/out.jpg"],"count":1}`, out)
}

func TestImageTool_Errors(t *testing.T) {
	images := mocks.NewMockImageService(t)
	tool := NewImageTool(images, "1080x1080")

	_, err := tool.InvokableRun(context.Background(), `{"size":"512x512"}`)
	assert.EqualError(t, err, "prompt required")

	images.On("GenerateImage", mock.Anything, mock.Anything).Return("", errors.New("seedream down")).Once()
	_, err = tool.InvokableRun(context.Background(), `{"prompt":"p","image":"data:image/png;base64,AA=="}`)
	assert.EqualError(t, err, "seedream down")
}

func TestImageTool_Info(t *testing.T) {
	info, err := NewImageTool(nil, "").Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image_generate", info.Name)
}

type runnerFunc func(ctx context.Context, req model.VideoGenerationRequest) (*service.Result, error)

func (f runnerFunc) Run(ctx context.Context, req model.VideoGenerationRequest) (*service.Result, error) {
	return f(ctx, req)
}

func TestLyricVideoTool_InvokableRun(t *testing.T) {
	var got model.VideoGenerationRequest
	tool := NewLyricVideoTool(runnerFunc(func(_ context.Context, req model.VideoGenerationRequest) (*service.Result, error) {
		got = req
		return &service.Result{SongID: req.SongID, EndLine: 8, TotalImages: 8, VideoPath: "output/videos/song_s1_lines_1-8.mp4"}, nil
	}))

	out, err := tool.InvokableRun(context.Background(), `{"song_id":"s1","end_line":8,"custom_input":{"story_description":"two strangers meet"}}`)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SongID)
	require.NotNil(t, got.EndLine)
	assert.Equal(t, 8, *got.EndLine)
	story, ok := got.CustomInput.Story()
	assert.True(t, ok)
	assert.Equal(t, "two strangers meet", story)
	assert.Contains(t, out, `"video_path":"output/videos/song_s1_lines_1-8.mp4"`)
	assert.Contains(t, out, `"message":"视频生成完成"`)

	_, err = tool.InvokableRun(context.Background(), `{"start_line":2}`)
	assert.EqualError(t, err, "song_id required")
}

func TestLyricVideoTool_Info(t *testing.T) {
	info, err := NewLyricVideoTool(nil).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lyric_video_generate", info.Name)
}
