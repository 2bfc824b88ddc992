package volc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/config"
)

const (
	defaultBase       = "https://ark.cn-beijing.volces.com"
	defaultImageModel = "seedream-4-0-250828"
	defaultImageSize  = "1080x1080"

	// MaxReferenceImages Seedream 单次请求支持的参考图上限
	MaxReferenceImages = 10

	// 1x1 PNG
	mockPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR4nGNgYAAAAAMAASsJTYQAAAAASUVORK5CYII="
)

// APIError 方舟接口返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// ArkClient Seedream 图片生成与下载客户端
type ArkClient struct {
	BaseURL        string
	APIKey         string
	ImageModel     string
	HTTPClient     *http.Client
	DownloadClient *http.Client
	Mock           bool
	log            *logrus.Entry
}

// NewArkClient 根据配置创建客户端
func NewArkClient(cfg config.ArkConfig) *ArkClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBase
	}
	model := cfg.ImageModel
	if model == "" {
		model = defaultImageModel
	}
	return &ArkClient{
		BaseURL:        strings.TrimRight(base, "/"),
		APIKey:         cfg.APIKey,
		ImageModel:     model,
		HTTPClient:     &http.Client{Timeout: cfg.ImageTimeout},
		DownloadClient: &http.Client{Timeout: cfg.FetchTimeout},
		Mock:           cfg.Mock,
		log:            logrus.WithField("component", "ark"),
	}
}

// ImageRequest 单张图片生成请求，References 为内联的 data URI
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Size           string
	References     []string
}

// GenerateImage 调用 Seedream 生成一张图片，返回图片地址
func (c *ArkClient) GenerateImage(ctx context.Context, p ImageRequest) (string, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return "", errors.New("prompt required")
	}
	if c.Mock {
		return "data:image/png;base64," + mockPixel, nil
	}
	if p.Size == "" {
		p.Size = defaultImageSize
	}
	body := map[string]any{
		"model":                       c.ImageModel,
		"prompt":                      p.Prompt,
		"size":                        p.Size,
		"sequential_image_generation": "disabled",
		"response_format":             "url",
		"watermark":                   false,
		"stream":                      false,
	}
	if p.NegativePrompt != "" {
		body["negative_prompt"] = p.NegativePrompt
	}
	refs := p.References
	if len(refs) > MaxReferenceImages {
		c.log.WithField("dropped", len(refs)-MaxReferenceImages).Warn("too many reference images, truncating")
		refs = refs[:MaxReferenceImages]
	}
	switch len(refs) {
	case 0:
	case 1:
		body["image"] = refs[0]
	default:
		body["image"] = refs
	}

	var resp struct {
		Data []struct {
			URL string `json:"url"`
			B64 string `json:"b64_json"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.postJSON(ctx, "/api/v3/images/generations", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("seedream error %s: %s", resp.Error.Code, resp.Error.Message)
	}
	for _, d := range resp.Data {
		if d.URL != "" {
			return d.URL, nil
		}
		if d.B64 != "" {
			return "data:image/jpeg;base64," + d.B64, nil
		}
	}
	return "", errors.New("no images returned")
}

// DownloadImage 下载图片到本地，支持 data URI
func (c *ArkClient) DownloadImage(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if strings.HasPrefix(url, "data:") {
		idx := strings.Index(url, ";base64,")
		if idx < 0 {
			return errors.New("unsupported data uri")
		}
		raw, err := base64.StdEncoding.DecodeString(url[idx+len(";base64,"):])
		if err != nil {
			return fmt.Errorf("decode data uri: %w", err)
		}
		return os.WriteFile(dest, raw, 0o644)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := c.DownloadClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &APIError{StatusCode: res.StatusCode, Body: string(b)}
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, res.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *ArkClient) postJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	c.log.WithField("url", req.URL.String()).Debug("POST")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{StatusCode: res.StatusCode, Body: string(bodyBytes)}
	}
	return json.Unmarshal(bodyBytes, out)
}
