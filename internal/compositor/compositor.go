package compositor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/config"
	"lyricvideo/internal/model"
	"lyricvideo/internal/roman"
)

var ErrNoImages = errors.New("no images to compose")

// Compositor 将逐行图片、三行字幕与音频合成为竖屏视频
type Compositor struct {
	cfg      config.VideoConfig
	fontPath string
	runner   CommandRunner
	log      *logrus.Entry
}

func New(cfg config.VideoConfig, fontPath string, runner CommandRunner) *Compositor {
	return &Compositor{
		cfg:      cfg,
		fontPath: fontPath,
		runner:   runner,
		log:      logrus.WithField("component", "compositor"),
	}
}

type segment struct {
	image    string
	duration float64
	captions [3]string
}

// Compose 每张图片渲染为一段，拼接后叠加 [首行开始, 末行结束] 区间的音频
func (c *Compositor) Compose(ctx context.Context, images []model.GeneratedImage, lines []model.LyricLine, audioPath, outPath string) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	byNumber := make(map[int]model.LyricLine, len(lines))
	for _, l := range lines {
		byNumber[l.LineNumber] = l
	}

	segments := make([]segment, 0, len(images))
	for _, img := range images {
		line, ok := byNumber[img.LineNumber]
		if !ok {
			return fmt.Errorf("no lyric for line %d", img.LineNumber)
		}
		d := img.EndTime - img.StartTime
		if d <= 0 {
			return fmt.Errorf("line %d has non-positive duration %.3f", img.LineNumber, d)
		}
		segments = append(segments, segment{
			image:    img.ImagePath,
			duration: d,
			captions: [3]string{line.EnglishText, line.KoreanText, roman.Romanize(line.KoreanText)},
		})
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	work, err := os.MkdirTemp(filepath.Dir(outPath), ".compose-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	var list strings.Builder
	for i, seg := range segments {
		c.log.Infof("rendering segment %d/%d", i+1, len(segments))
		out, err := c.renderSegment(ctx, work, i, seg)
		if err != nil {
			return fmt.Errorf("render segment %d: %w", i+1, err)
		}
		fmt.Fprintf(&list, "file %s\n", quote(filepath.Base(out)))
	}
	listPath := filepath.Join(work, "segments.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return err
	}

	start, end := images[0].StartTime, images[len(images)-1].EndTime
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-ss", seconds(start), "-to", seconds(end), "-i", audioPath,
		"-map", "0:v", "-map", "1:a",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		"-shortest", "-movflags", "+faststart",
		outPath,
	}
	c.log.WithField("output", outPath).Info("assembling video")
	if err := c.runner.Run(ctx, c.cfg.FFmpegBinary, args...); err != nil {
		return fmt.Errorf("assemble video: %w", err)
	}
	return nil
}

func (c *Compositor) renderSegment(ctx context.Context, work string, idx int, seg segment) (string, error) {
	out := filepath.Join(work, fmt.Sprintf("segment_%03d.mp4", idx+1))
	filter := []string{
		fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s[bg]", c.cfg.Width, c.cfg.Height, c.cfg.FPS, seconds(seg.duration)),
		fmt.Sprintf("[0:v]scale=%d:%d,setsar=1[img]", c.cfg.ImageSize, c.cfg.ImageSize),
	}
	chain := fmt.Sprintf("[bg][img]overlay=x=(W-w)/2:y=%d", c.cfg.TopPadding)
	for i, text := range seg.captions {
		if strings.TrimSpace(text) == "" {
			continue
		}
		textFile := filepath.Join(work, fmt.Sprintf("caption_%03d_%d.txt", idx+1, i))
		if err := os.WriteFile(textFile, []byte(text), 0o644); err != nil {
			return "", err
		}
		chain += "," + c.drawText(textFile, c.cfg.TextStartY+i*c.cfg.TextSpacing)
	}
	filter = append(filter, chain+"[v]")

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-loop", "1", "-framerate", strconv.Itoa(c.cfg.FPS), "-t", seconds(seg.duration), "-i", seg.image,
		"-filter_complex", strings.Join(filter, ";"),
		"-map", "[v]", "-t", seconds(seg.duration), "-r", strconv.Itoa(c.cfg.FPS),
		"-c:v", "libx264", "-preset", "medium", "-pix_fmt", "yuv420p", "-an",
		out,
	}
	if err := c.runner.Run(ctx, c.cfg.FFmpegBinary, args...); err != nil {
		return "", err
	}
	return out, nil
}

// drawText 字幕从文件读取，避免滤镜转义
func (c *Compositor) drawText(textFile string, y int) string {
	opts := []string{
		"textfile=" + quote(textFile),
		"fontsize=" + strconv.Itoa(c.cfg.FontSize),
		"fontcolor=" + c.cfg.TextColor,
		"x=(w-text_w)/2",
		"y=" + strconv.Itoa(y),
	}
	if c.fontPath != "" {
		opts = append([]string{"fontfile=" + quote(c.fontPath)}, opts...)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
