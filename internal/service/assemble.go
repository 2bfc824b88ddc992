package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lyricvideo/internal/director"
	"lyricvideo/internal/metrics"
	"lyricvideo/internal/model"
)

var ErrMissingFrames = errors.New("missing frames")

// existingFramePrompt 复用帧没有对应的提示词
const existingFramePrompt = "N/A - using existing image"

// Assemble 用磁盘上已生成的帧重新合成视频，不调用模型与出图服务
func (s *LyricVideoService) Assemble(ctx context.Context, req model.VideoGenerationRequest) (res *Result, err error) {
	defer func() { metrics.ObserveVideo(err) }()

	req.Normalize()
	if err := validate(req); err != nil {
		return nil, err
	}

	started := time.Now()
	runID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run_id": runID, "song_id": req.SongID, "mode": "assemble"})

	song, _, target, err := s.fetchLyrics(ctx, req)
	if err != nil {
		return nil, err
	}
	last := target[len(target)-1].LineNumber

	framesDir := filepath.Join(s.opts.FramesDir, req.SongID)
	images, err := existingFrames(framesDir, target)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"frames": len(images), "dir": framesDir}).Info("found existing frames")

	audioPath, err := s.ensureAudio(ctx, *song)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}

	videoPath := filepath.Join(s.opts.VideosDir, outputName(req, last))
	if err := s.deps.Compositor.Compose(ctx, images, target, audioPath, videoPath); err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}

	metaPath := videoPath + ".json"
	if err := writeJSON(metaPath, model.VideoMetadata{
		SongID:                req.SongID,
		Title:                 song.Title,
		Artist:                song.Artist,
		StartLine:             req.StartLine,
		EndLine:               last,
		TotalImages:           len(images),
		Images:                images,
		AssembledFromExisting: true,
	}); err != nil {
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
	}
	if req.Upload {
		s.upload(ctx, log, res, req.DeleteAfterUpload)
	}
	res.ElapsedSec = time.Since(started).Seconds()
	log.WithField("video", videoPath).Info("video assembled from existing frames")
	return res, nil
}

// existingFrames 任一行缺帧即报错，并列出全部缺失行号
func existingFrames(dir string, lines []model.LyricLine) ([]model.GeneratedImage, error) {
	images := make([]model.GeneratedImage, 0, len(lines))
	var missing []int
	for _, l := range lines {
		path := filepath.Join(dir, director.FrameFileName(l.LineNumber))
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, l.LineNumber)
			continue
		}
		images = append(images, model.GeneratedImage{
			LineNumber:    l.LineNumber,
			ImagePath:     path,
			PromptUsed:    existingFramePrompt,
			StartTime:     l.StartTimeSeconds,
			EndTime:       l.EndTimeSeconds,
			UsedReference: true,
		})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w for lines %v in %s", ErrMissingFrames, missing, dir)
	}
	return images, nil
}
