package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"lyricvideo/internal/config"
)

var ErrDriveDisabled = errors.New("google drive credentials not configured")

// Result 上传结果
type Result struct {
	FileID      string `json:"file_id"`
	WebViewLink string `json:"web_view_link"`
	FolderID    string `json:"folder_id,omitempty"`
}

// DriveUploader 将成品视频上传到 Google Drive 指定目录
type DriveUploader struct {
	svc      *drive.Service
	folderID string
	log      *logrus.Entry
}

// NewDriveUploader 使用 refresh token 换取访问令牌
func NewDriveUploader(ctx context.Context, cfg config.DriveConfig) (*DriveUploader, error) {
	if !cfg.Enabled() {
		return nil, ErrDriveDisabled
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return NewDriveUploaderWithService(svc, cfg.FolderID), nil
}

func NewDriveUploaderWithService(svc *drive.Service, folderID string) *DriveUploader {
	return &DriveUploader{svc: svc, folderID: folderID, log: logrus.WithField("component", "drive")}
}

// UploadVideo deleteLocal 为 true 时上传成功后删除本地文件
func (u *DriveUploader) UploadVideo(ctx context.Context, path string, deleteLocal bool) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	meta := &drive.File{Name: filepath.Base(path), MimeType: mimeType(path)}
	if u.folderID != "" {
		meta.Parents = []string{u.folderID}
	}
	log := u.log.WithFields(logrus.Fields{"file": meta.Name, "size_mb": fmt.Sprintf("%.2f", float64(info.Size())/(1024*1024))})
	log.Info("uploading to drive")

	created, err := u.svc.Files.Create(meta).Media(f).Fields("id, webViewLink").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload: %w", err)
	}
	res := &Result{FileID: created.Id, WebViewLink: created.WebViewLink, FolderID: u.folderID}
	log.WithField("link", res.WebViewLink).Info("upload complete")

	if deleteLocal {
		f.Close()
		if err := os.Remove(path); err != nil {
			log.WithError(err).Warn("could not delete local file")
		} else {
			log.Info("local file deleted")
		}
	}
	return res, nil
}

func mimeType(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".mp4":
		return "video/mp4"
	case ".json":
		return "application/json"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
