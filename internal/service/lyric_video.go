package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lyricvideo/internal/director"
	"lyricvideo/internal/metrics"
	"lyricvideo/internal/model"
	"lyricvideo/internal/upload"
)

var (
	ErrNoLyrics     = errors.New("no lyrics found")
	ErrInvalidRange = errors.New("invalid line range")
)

// SongRepository 歌曲元数据来源
type SongRepository interface {
	GetSong(ctx context.Context, songID string) (*model.SongMetadata, error)
	GetLyrics(ctx context.Context, songID string, start, end *int) ([]model.LyricLine, error)
	GetAllLyrics(ctx context.Context, songID string) ([]model.LyricLine, error)
	ListPublishedSongs(ctx context.Context, language string) ([]model.SongSummary, error)
}

type AudioFetcher interface {
	Fetch(ctx context.Context, audioPath, dest string) error
}

type StyleResolver interface {
	Resolve(ctx context.Context, song model.SongMetadata, all, target []model.LyricLine, custom *model.CustomCreativeInput) (model.StyleGuide, error)
}

type ImageDirector interface {
	Run(ctx context.Context, lines []model.LyricLine, guide model.StyleGuide, songID string, custom *model.CustomCreativeInput) ([]model.GeneratedImage, error)
}

type VideoCompositor interface {
	Compose(ctx context.Context, images []model.GeneratedImage, lines []model.LyricLine, audioPath, outPath string) error
}

// Uploader 可选，为 nil 时跳过上传
type Uploader interface {
	UploadVideo(ctx context.Context, path string, deleteLocal bool) (*upload.Result, error)
}

// Dependencies 服务依赖的各个组件
type Dependencies struct {
	Songs      SongRepository
	Audio      AudioFetcher
	Style      StyleResolver
	Director   ImageDirector
	Compositor VideoCompositor
	Uploader   Uploader
}

// Options 输出目录，FramesDir 仅在由已有帧合成时使用
type Options struct {
	VideosDir string
	TempDir   string
	FramesDir string
}

// Result 一次生成任务的产物
type Result struct {
	RunID        string         `json:"run_id"`
	SongID       string         `json:"song_id"`
	Title        string         `json:"title"`
	StartLine    int            `json:"start_line"`
	EndLine      int            `json:"end_line"`
	TotalImages  int            `json:"total_images"`
	VideoPath    string         `json:"video_path"`
	MetadataPath string         `json:"metadata_path"`
	LogPath      string         `json:"log_path"`
	Upload       *upload.Result `json:"upload,omitempty"`
	UploadError  string         `json:"upload_error,omitempty"`
	ElapsedSec   float64        `json:"elapsed_seconds"`
}

// LyricVideoService 串联取数、风格、逐行出图、合成与上传
type LyricVideoService struct {
	deps Dependencies
	opts Options
	log  *logrus.Entry
}

func NewLyricVideoService(deps Dependencies, opts Options) *LyricVideoService {
	return &LyricVideoService{deps: deps, opts: opts, log: logrus.WithField("component", "service")}
}

// Run 生成一段歌词视频
func (s *LyricVideoService) Run(ctx context.Context, req model.VideoGenerationRequest) (res *Result, err error) {
	defer func() { metrics.ObserveVideo(err) }()

	req.Normalize()
	if err := validate(req); err != nil {
		return nil, err
	}

	started := time.Now()
	runID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run_id": runID, "song_id": req.SongID})

	log.Info("fetching song data")
	song, all, target, err := s.fetchLyrics(ctx, req)
	if err != nil {
		return nil, err
	}
	first, last := target[0].LineNumber, target[len(target)-1].LineNumber
	log.WithFields(logrus.Fields{"title": song.Title, "lines": len(target), "first": first, "last": last}).Info("song data ready")

	audioPath, err := s.ensureAudio(ctx, *song)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}

	log.Info("resolving style guide")
	guide, err := s.deps.Style.Resolve(ctx, *song, all, target, req.CustomInput)
	if err != nil {
		return nil, fmt.Errorf("resolve style: %w", err)
	}
	log.WithField("visual_style", guide.VisualStyle).Debug("style guide resolved")

	images, err := s.deps.Director.Run(ctx, target, guide, req.SongID, req.CustomInput)
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}

	videoPath := filepath.Join(s.opts.VideosDir, outputName(req, last))
	if err := s.deps.Compositor.Compose(ctx, images, target, audioPath, videoPath); err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}

	meta := model.VideoMetadata{
		SongID:      req.SongID,
		Title:       song.Title,
		Artist:      song.Artist,
		StartLine:   req.StartLine,
		EndLine:     last,
		TotalImages: len(images),
		StyleGuide:  &guide,
		Images:      images,
	}
	metaPath := videoPath + ".json"
	if err := writeJSON(metaPath, meta); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	res = &Result{
		RunID:        runID,
		SongID:       req.SongID,
		Title:        song.Title,
		StartLine:    req.StartLine,
		EndLine:      last,
		TotalImages:  len(images),
		VideoPath:    videoPath,
		MetadataPath: metaPath,
		LogPath:      filepath.Join(s.opts.VideosDir, director.LogFileName(req.SongID)),
	}

	if req.Upload {
		s.upload(ctx, log, res, req.DeleteAfterUpload)
	}
	res.ElapsedSec = time.Since(started).Seconds()
	log.WithFields(logrus.Fields{"video": videoPath, "elapsed": time.Since(started).Round(time.Second)}).Info("video generation complete")
	return res, nil
}

func (s *LyricVideoService) fetchLyrics(ctx context.Context, req model.VideoGenerationRequest) (*model.SongMetadata, []model.LyricLine, []model.LyricLine, error) {
	song, err := s.deps.Songs.GetSong(ctx, req.SongID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch song: %w", err)
	}
	all, err := s.deps.Songs.GetAllLyrics(ctx, req.SongID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch song: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil, fmt.Errorf("%w for song %s", ErrNoLyrics, req.SongID)
	}

	end := slices.MaxFunc(all, func(a, b model.LyricLine) int { return a.LineNumber - b.LineNumber }).LineNumber
	if req.EndLine != nil {
		end = *req.EndLine
	}
	start := req.StartLine
	target, err := s.deps.Songs.GetLyrics(ctx, req.SongID, &start, &end)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch song: %w", err)
	}
	if len(target) == 0 {
		return nil, nil, nil, fmt.Errorf("%w in lines %d-%d", ErrNoLyrics, start, end)
	}
	return song, all, target, nil
}

// ensureAudio 已下载的音频直接复用
func (s *LyricVideoService) ensureAudio(ctx context.Context, song model.SongMetadata) (string, error) {
	path := filepath.Join(s.opts.TempDir, fmt.Sprintf("song_%s.mp3", song.ID))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if song.AudioFilePath == "" {
		return "", errors.New("song has no audio file path")
	}
	if err := s.deps.Audio.Fetch(ctx, song.AudioFilePath, path); err != nil {
		return "", err
	}
	return path, nil
}

// upload 失败不影响已生成的视频，错误记录在结果中
func (s *LyricVideoService) upload(ctx context.Context, log *logrus.Entry, res *Result, deleteLocal bool) {
	if s.deps.Uploader == nil {
		log.Warn("upload requested but drive is not configured")
		res.UploadError = upload.ErrDriveDisabled.Error()
		return
	}
	up, err := s.deps.Uploader.UploadVideo(ctx, res.VideoPath, deleteLocal)
	if err != nil {
		log.WithError(err).Error("upload failed")
		res.UploadError = err.Error()
		return
	}
	res.Upload = up
}

func outputName(req model.VideoGenerationRequest, last int) string {
	if name := filepath.Base(strings.TrimSpace(req.OutputFilename)); name != "" && name != "." && name != string(filepath.Separator) {
		if !strings.HasSuffix(strings.ToLower(name), ".mp4") {
			name += ".mp4"
		}
		return name
	}
	return fmt.Sprintf("song_%s_lines_%d-%d.mp4", req.SongID, req.StartLine, last)
}

func validate(req model.VideoGenerationRequest) error {
	if strings.TrimSpace(req.SongID) == "" {
		return errors.New("empty song id")
	}
	if req.StartLine < 1 || (req.EndLine != nil && *req.EndLine < req.StartLine) {
		return fmt.Errorf("%w: start %d end %v", ErrInvalidRange, req.StartLine, endValue(req.EndLine))
	}
	return nil
}

func endValue(end *int) any {
	if end == nil {
		return "last"
	}
	return *end
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
