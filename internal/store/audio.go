package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrAudioUnavailable = errors.New("audio unavailable")

// AudioFetcher 从公开存储桶下载歌曲音频
type AudioFetcher struct {
	baseURL string
	client  *http.Client
	log     *logrus.Entry
}

// NewAudioFetcher supabaseURL 可以带 /rest/v1 后缀
func NewAudioFetcher(supabaseURL string, timeout time.Duration) *AudioFetcher {
	base := strings.TrimSuffix(strings.TrimRight(supabaseURL, "/"), "/rest/v1")
	return &AudioFetcher{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logrus.WithField("component", "audio"),
	}
}

// CandidateURLs 存储路径可能带或不带桶名，按顺序尝试
func (f *AudioFetcher) CandidateURLs(audioPath string) []string {
	p := strings.TrimLeft(audioPath, "/")
	public := f.baseURL + "/storage/v1/object/public/"
	return []string{
		public + "audio/" + p,
		public + p,
		public + "audio/" + strings.ReplaceAll(p, "albums/", ""),
	}
}

// Fetch 第一个成功的地址写入 dest，全部失败返回 ErrAudioUnavailable
func (f *AudioFetcher) Fetch(ctx context.Context, audioPath, dest string) error {
	var errs []error
	for _, url := range f.CandidateURLs(audioPath) {
		err := f.download(ctx, url, dest)
		if err == nil {
			f.log.WithField("url", url).Info("audio downloaded")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.WithError(err).WithField("url", url).Debug("audio url failed")
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrAudioUnavailable, audioPath, errors.Join(errs...))
}

func (f *AudioFetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
