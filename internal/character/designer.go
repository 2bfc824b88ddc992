package character

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lyricvideo/internal/llm"
	"lyricvideo/internal/metrics"
	"lyricvideo/internal/model"
	"lyricvideo/internal/volc"
)

const designMaxTokens = 500

var designTemplate = llm.NewTemplate("character_design", `Create a character design reference prompt for the {{.role}} lead of a lyric video.

Visual style: {{.visual_style}}
Story context: {{.story}}
{{if .conversation}}The video is a conversation between a man and a woman; this character is one of the two speakers.
{{end}}
The image will be used as a fixed visual anchor for every later scene, so describe:
- a single {{.role}} subject, alone in frame
- a neutral, minimal background
- a forward-facing or three-quarter pose, head and upper body clearly visible
- distinctive, re-identifiable features: face shape, hairstyle and hair color, outfit, colors, accessories
- the same art style as described above

RULES:
- NO text, letters, captions or speech bubbles
- NO other people

Respond with ONLY the Seedream prompt text.`)

// ImageService 图片生成服务
type ImageService interface {
	GenerateImage(ctx context.Context, req volc.ImageRequest) (string, error)
	DownloadImage(ctx context.Context, url, dest string) error
}

// Options 角色设计参数
type Options struct {
	Roles          []model.Role
	Size           string
	NegativePrompt string
	// Delay 相邻两次图片请求的间隔
	Delay time.Duration
}

// Designer 为每个角色生成定妆图
type Designer struct {
	llm     llm.Generator
	images  ImageService
	opts    Options
	limiter *rate.Limiter
	log     *logrus.Entry
}

func NewDesigner(gen llm.Generator, images ImageService, opts Options) *Designer {
	if len(opts.Roles) == 0 {
		opts.Roles = model.DefaultRoles
	}
	return &Designer{
		llm:     gen,
		images:  images,
		opts:    opts,
		limiter: newLimiter(opts.Delay),
		log:     logrus.WithField("component", "character"),
	}
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// FileName 角色定妆图的固定文件名
func FileName(role model.Role) string {
	return fmt.Sprintf("character_%s.jpg", role)
}

// Design 按固定顺序生成全部角色，任一失败则整体失败
func (d *Designer) Design(ctx context.Context, guide model.StyleGuide, dir string, custom *model.CustomCreativeInput) ([]model.CharacterReference, error) {
	refs := make([]model.CharacterReference, 0, len(d.opts.Roles))
	for _, role := range d.opts.Roles {
		ref, err := d.designRole(ctx, guide, dir, role, custom)
		if err != nil {
			return nil, fmt.Errorf("design %s character: %w", role, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (d *Designer) designRole(ctx context.Context, guide model.StyleGuide, dir string, role model.Role, custom *model.CustomCreativeInput) (model.CharacterReference, error) {
	start := time.Now()
	log := d.log.WithField("role", role)

	prompt, ok := custom.CharacterDescription(role)
	if ok {
		log.Info("using custom character description")
	} else {
		var err error
		prompt, err = d.draftPrompt(ctx, guide, role)
		if err != nil {
			return model.CharacterReference{}, err
		}
	}

	path, err := d.render(ctx, prompt, filepath.Join(dir, FileName(role)))
	metrics.ObserveImage("character", time.Since(start), err)
	if err != nil {
		return model.CharacterReference{}, err
	}
	log.WithField("path", path).Info("character design saved")
	return model.CharacterReference{Role: role, ImagePath: path, Prompt: prompt}, nil
}

func (d *Designer) render(ctx context.Context, prompt, path string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	url, err := d.images.GenerateImage(ctx, volc.ImageRequest{
		Prompt:         prompt,
		NegativePrompt: d.opts.NegativePrompt,
		Size:           d.opts.Size,
	})
	if err != nil {
		return "", err
	}
	if err := d.images.DownloadImage(ctx, url, path); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return path, nil
}

func (d *Designer) draftPrompt(ctx context.Context, guide model.StyleGuide, role model.Role) (string, error) {
	text, err := designTemplate.Render(ctx, map[string]any{
		"role":         string(role),
		"visual_style": guide.VisualStyle,
		"story":        guide.SegmentStory,
		"conversation": guide.IsConversation,
	})
	if err != nil {
		return "", err
	}
	out, err := d.llm.Generate(ctx, text, designMaxTokens)
	if err != nil {
		return "", fmt.Errorf("character prompt request: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}
