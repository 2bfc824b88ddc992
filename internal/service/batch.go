package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lyricvideo/internal/config"
	"lyricvideo/internal/model"
)

// BatchEntry 单首歌曲的批量处理结果
type BatchEntry struct {
	SongID     string  `json:"song_id"`
	Title      string  `json:"title"`
	ElapsedSec float64 `json:"elapsed_seconds,omitempty"`
	VideoPath  string  `json:"video_path,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BatchReport 批量处理汇总
type BatchReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Total      int          `json:"total"`
	Successful []BatchEntry `json:"successful"`
	Failed     []BatchEntry `json:"failed"`
	ReportPath string       `json:"report_path,omitempty"`
}

// RunBatch 依次处理所有已发布歌曲，单首失败不中断
func (s *LyricVideoService) RunBatch(ctx context.Context, cfg config.BatchConfig) (*BatchReport, error) {
	log := s.log.WithField("batch_language", cfg.Language)
	report := &BatchReport{StartedAt: time.Now()}

	songs, err := s.deps.Songs.ListPublishedSongs(ctx, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	report.Total = len(songs)
	if len(songs) == 0 {
		log.Warn("no published songs found")
		report.FinishedAt = time.Now()
		return report, nil
	}
	log.WithField("songs", len(songs)).Info("batch started")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.SongDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.SongDelay), 1)
	}

	var runErr error
	for i, song := range songs {
		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}
		log.Infof("processing %d/%d: %s", i+1, len(songs), song.Title)
		report.add(s.runSong(ctx, cfg, song, log))
	}

	report.FinishedAt = time.Now()
	path := filepath.Join(s.opts.VideosDir, fmt.Sprintf("batch_report_%s.txt", report.FinishedAt.Format("20060102_150405")))
	if err := report.write(path); err != nil {
		log.WithError(err).Error("could not write batch report")
	} else {
		report.ReportPath = path
	}
	log.WithFields(logrus.Fields{
		"successful": len(report.Successful),
		"failed":     len(report.Failed),
	}).Info("batch finished")
	return report, runErr
}

func (s *LyricVideoService) runSong(ctx context.Context, cfg config.BatchConfig, song model.SongSummary, log *logrus.Entry) BatchEntry {
	start := time.Now()
	end := cfg.EndLine
	entry := BatchEntry{SongID: song.ID, Title: song.Title}
	res, err := s.Run(ctx, model.VideoGenerationRequest{
		SongID:            song.ID,
		StartLine:         cfg.StartLine,
		EndLine:           &end,
		Upload:            cfg.Upload,
		DeleteAfterUpload: cfg.DeleteAfterUpload,
	})
	entry.ElapsedSec = time.Since(start).Seconds()
	if err != nil {
		log.WithError(err).WithField("song_id", song.ID).Error("song failed, continuing")
		entry.Error = err.Error()
		return entry
	}
	entry.VideoPath = res.VideoPath
	return entry
}

func (r *BatchReport) add(e BatchEntry) {
	if e.Error != "" {
		r.Failed = append(r.Failed, e)
		return
	}
	r.Successful = append(r.Successful, e)
}

func (r *BatchReport) write(path string) error {
	var b strings.Builder
	b.WriteString("BATCH VIDEO GENERATION REPORT\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "Finished: %s\n\n", r.FinishedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "Total Songs: %d\n", r.Total)
	fmt.Fprintf(&b, "Successful: %d\n", len(r.Successful))
	fmt.Fprintf(&b, "Failed: %d\n", len(r.Failed))
	fmt.Fprintf(&b, "Skipped: %d\n\n", r.Total-len(r.Successful)-len(r.Failed))

	b.WriteString("SUCCESSFUL:\n")
	for _, e := range r.Successful {
		fmt.Fprintf(&b, "  - %s (ID: %s) %.1fs\n", e.Title, e.SongID, e.ElapsedSec)
	}
	b.WriteString("\nFAILED:\n")
	for _, e := range r.Failed {
		fmt.Fprintf(&b, "  - %s (ID: %s)\n", e.Title, e.SongID)
		fmt.Fprintf(&b, "    Error: %s\n", e.Error)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
