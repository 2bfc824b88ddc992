package reference

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Loader 将本地参考图编码为 data URI
type Loader struct {
	cache *cache.Cache
	log   *logrus.Entry
}

func NewLoader() *Loader {
	return &Loader{
		cache: cache.New(30*time.Minute, 10*time.Minute),
		log:   logrus.WithField("component", "reference"),
	}
}

// Load 跳过缺失或不可读的文件，从不返回错误；loaded 为成功编码的路径
func (l *Loader) Load(paths []string) (uris []string, loaded []string) {
	for _, p := range paths {
		uri, err := l.encode(p)
		if err != nil {
			l.log.WithError(err).WithField("path", p).Warn("could not load reference image, skipping")
			continue
		}
		uris = append(uris, uri)
		loaded = append(loaded, p)
	}
	return uris, loaded
}

func (l *Loader) encode(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	if v, ok := l.cache.Get(key); ok {
		return v.(string), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	uri := "data:image/" + imageFormat(path) + ";base64," + base64.StdEncoding.EncodeToString(raw)
	l.cache.SetDefault(key, uri)
	return uri, nil
}

func imageFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "jpg", "":
		return "jpeg"
	default:
		return ext
	}
}
