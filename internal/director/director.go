package director

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lyricvideo/internal/genlog"
	"lyricvideo/internal/llm"
	"lyricvideo/internal/metrics"
	"lyricvideo/internal/model"
	"lyricvideo/internal/reference"
	"lyricvideo/internal/volc"
)

var (
	ErrNoLines        = errors.New("no lyric lines to generate")
	ErrDuplicateLine  = errors.New("duplicate line number")
	ErrLineOutOfRange = errors.New("line number out of range")
)

// ImageService 图片生成服务
type ImageService interface {
	GenerateImage(ctx context.Context, req volc.ImageRequest) (string, error)
	DownloadImage(ctx context.Context, url, dest string) error
}

// CharacterDesigner 生成角色定妆图
type CharacterDesigner interface {
	Design(ctx context.Context, guide model.StyleGuide, dir string, custom *model.CustomCreativeInput) ([]model.CharacterReference, error)
}

// Options 目录与节奏参数
type Options struct {
	FramesDir string
	VideosDir string
	Size      string
	// LineDelay 相邻两行图片请求的间隔
	LineDelay time.Duration
	// HistoryWindow 决策时携带的历史提示词条数，0 表示全部
	HistoryWindow int
}

// Director 逐行生成图片序列
type Director struct {
	llm      llm.Generator
	images   ImageService
	designer CharacterDesigner
	policy   reference.Policy
	loader   *reference.Loader
	opts     Options
	limiter  *rate.Limiter
	log      *logrus.Entry
}

func New(gen llm.Generator, images ImageService, designer CharacterDesigner, policy reference.Policy, loader *reference.Loader, opts Options) *Director {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.LineDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.LineDelay), 1)
	}
	return &Director{
		llm:      gen,
		images:   images,
		designer: designer,
		policy:   policy,
		loader:   loader,
		opts:     opts,
		limiter:  limiter,
		log:      logrus.WithFields(logrus.Fields{"component": "director", "policy": policy.Name()}),
	}
}

// MaxLineNumber 帧文件名三位补零所能容纳的最大行号
const MaxLineNumber = 999

// FrameFileName 三位补零，行号不超过 MaxLineNumber 时字典序与行号一致
func FrameFileName(lineNumber int) string {
	return fmt.Sprintf("line_%03d.jpg", lineNumber)
}

// LogFileName 生成日志文件名
func LogFileName(songID string) string {
	return fmt.Sprintf("generation_log_%s.txt", songID)
}

// run 单次任务的累积状态
type run struct {
	songID     string
	framesDir  string
	guide      model.StyleGuide
	characters []model.CharacterReference
	prompts    []string
	paths      []string
	total      int
	glog       *genlog.Logger
	log        *logrus.Entry
}

// Run 任一行失败即终止并返回错误，不返回部分结果
func (d *Director) Run(ctx context.Context, lines []model.LyricLine, guide model.StyleGuide, songID string, custom *model.CustomCreativeInput) ([]model.GeneratedImage, error) {
	ordered, err := orderLines(lines)
	if err != nil {
		return nil, err
	}

	framesDir := filepath.Join(d.opts.FramesDir, songID)
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	glog := genlog.Open(filepath.Join(d.opts.VideosDir, LogFileName(songID)))
	defer glog.Close()
	glog.StyleGuide(guide)

	log := d.log.WithField("song_id", songID)
	log.Info("generating character designs")
	characters, err := d.designer.Design(ctx, guide, framesDir, custom)
	if err != nil {
		glog.Log("CHARACTER DESIGN FAILED: " + err.Error())
		return nil, err
	}
	glog.CharacterDesigns(characters)

	r := &run{
		songID:     songID,
		framesDir:  framesDir,
		guide:      guide,
		characters: characters,
		total:      len(ordered),
		glog:       glog,
		log:        log,
	}
	images := make([]model.GeneratedImage, 0, len(ordered))
	pipelineStart := time.Now()
	for idx, line := range ordered {
		img, err := d.processLine(ctx, r, idx, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.LineNumber, err)
		}
		images = append(images, img)
	}
	glog.Summary(len(images), time.Since(pipelineStart))
	log.WithField("images", len(images)).Info("image sequence complete")
	return images, nil
}

func orderLines(lines []model.LyricLine) ([]model.LyricLine, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	ordered := slices.Clone(lines)
	slices.SortStableFunc(ordered, func(a, b model.LyricLine) int { return a.LineNumber - b.LineNumber })
	if first, last := ordered[0].LineNumber, ordered[len(ordered)-1].LineNumber; first < 1 || last > MaxLineNumber {
		return nil, fmt.Errorf("%w: lines %d-%d, allowed 1-%d", ErrLineOutOfRange, first, last, MaxLineNumber)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].LineNumber == ordered[i-1].LineNumber {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLine, ordered[i].LineNumber)
		}
	}
	return ordered, nil
}

func (d *Director) processLine(ctx context.Context, r *run, idx int, line model.LyricLine) (model.GeneratedImage, error) {
	start := time.Now()
	log := r.log.WithField("line", line.LineNumber)
	log.Infof("generating image for line %d: %s", line.LineNumber, line.EnglishText)
	r.glog.LineStart(line.LineNumber, line.EnglishText, line.KoreanText)

	img, err := d.generateLine(ctx, r, idx, line, start)
	elapsed := time.Since(start)
	metrics.ObserveImage("frame", elapsed, err)
	if err != nil {
		r.glog.GenerationResult(false, elapsed, "ERROR: "+err.Error())
		log.WithError(err).Error("line generation failed")
		return model.GeneratedImage{}, err
	}
	r.glog.GenerationResult(true, elapsed, img.ImagePath)
	log.WithField("elapsed", elapsed.Round(time.Millisecond)).Info("line generated")
	return img, nil
}

func (d *Director) generateLine(ctx context.Context, r *run, idx int, line model.LyricLine, start time.Time) (model.GeneratedImage, error) {
	var decision model.PromptDecision
	var err error
	if idx == 0 {
		decision, err = d.firstPrompt(ctx, r, line)
	} else {
		decision, err = d.nextPrompt(ctx, r, line)
	}
	if err != nil {
		return model.GeneratedImage{}, err
	}
	r.glog.PromptGeneration(decision.SeedreamPrompt, decision.CreativeReasoning)

	sel, err := d.selectReferences(ctx, r, line, decision)
	if err != nil {
		return model.GeneratedImage{}, err
	}
	r.glog.ReferenceSelection(sel.Indices, sel.Rationale, len(r.prompts))
	refs, used := d.loader.Load(sel.Paths)

	if err := d.limiter.Wait(ctx); err != nil {
		return model.GeneratedImage{}, err
	}
	url, err := d.images.GenerateImage(ctx, volc.ImageRequest{
		Prompt:         decision.SeedreamPrompt,
		NegativePrompt: NegativePrompt,
		Size:           d.opts.Size,
		References:     refs,
	})
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("generate image: %w", err)
	}
	path := filepath.Join(r.framesDir, FrameFileName(line.LineNumber))
	if err := d.images.DownloadImage(ctx, url, path); err != nil {
		return model.GeneratedImage{}, fmt.Errorf("download image: %w", err)
	}

	r.prompts = append(r.prompts, decision.SeedreamPrompt)
	r.paths = append(r.paths, path)

	return model.GeneratedImage{
		LineNumber:     line.LineNumber,
		ImagePath:      path,
		PromptUsed:     decision.SeedreamPrompt,
		StartTime:      line.StartTimeSeconds,
		EndTime:        line.EndTimeSeconds,
		UsedReference:  len(refs) > 0,
		ReferenceImage: strings.Join(used, ", "),
		GenerationTime: time.Since(start).Seconds(),
	}, nil
}

func (d *Director) firstPrompt(ctx context.Context, r *run, line model.LyricLine) (model.PromptDecision, error) {
	text, err := firstTemplate.Render(ctx, map[string]any{
		"visual_style": r.guide.VisualStyle,
		"story":        r.guide.SegmentStory,
		"characters":   r.characters,
		"english":      line.EnglishText,
		"korean":       line.KoreanText,
	})
	if err != nil {
		return model.PromptDecision{}, err
	}
	out, err := d.llm.Generate(ctx, text, firstMaxTokens)
	if err != nil {
		return model.PromptDecision{}, fmt.Errorf("first prompt request: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return model.PromptDecision{}, llm.ErrEmptyResponse
	}
	return model.PromptDecision{SeedreamPrompt: out}, nil
}

func (d *Director) nextPrompt(ctx context.Context, r *run, line model.LyricLine) (model.PromptDecision, error) {
	history := r.prompts
	if w := d.opts.HistoryWindow; w > 0 && len(history) > w {
		history = history[len(history)-w:]
	}
	text, err := nextTemplate.Render(ctx, map[string]any{
		"line_number":  line.LineNumber,
		"total_lines":  r.total,
		"visual_style": r.guide.VisualStyle,
		"story":        r.guide.SegmentStory,
		"characters":   r.characters,
		"history":      history,
		"english":      line.EnglishText,
		"korean":       line.KoreanText,
		"conversation": r.guide.IsConversation,
	})
	if err != nil {
		return model.PromptDecision{}, err
	}
	out, err := d.llm.Generate(ctx, text, nextMaxTokens)
	if err != nil {
		return model.PromptDecision{}, fmt.Errorf("next prompt request: %w", err)
	}
	var decision model.PromptDecision
	if err := llm.ExtractJSON(out, &decision); err != nil {
		return model.PromptDecision{}, err
	}
	decision.SeedreamPrompt = strings.TrimSpace(decision.SeedreamPrompt)
	if decision.SeedreamPrompt == "" {
		return model.PromptDecision{}, llm.NewParseError(out, fmt.Errorf("%w: seedream_prompt", llm.ErrMissingField))
	}
	return decision, nil
}

func (d *Director) selectReferences(ctx context.Context, r *run, line model.LyricLine, decision model.PromptDecision) (reference.Selection, error) {
	if d.policy.HistoryBased() && !decision.UseHistory() {
		return reference.Selection{Rationale: "History references not requested"}, nil
	}
	sel, err := d.policy.Select(ctx, reference.Request{
		HistoryPrompts: r.prompts,
		HistoryPaths:   r.paths,
		Line:           line,
		Guide:          r.guide,
		Characters:     r.characters,
	})
	if err != nil {
		return reference.Selection{}, fmt.Errorf("select references: %w", err)
	}
	return sel, nil
}
