package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogging 配置 logrus，同时输出到终端与日志文件
func InitLogging(cfg LogConfig) (io.Closer, error) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}
	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, logFile))
	return logFile, nil
}

// nopCloser 未配置日志文件时返回
type nopCloser struct{}

func (nopCloser) Close() error { return nil }
