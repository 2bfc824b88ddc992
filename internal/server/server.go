package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"lyricvideo/internal/model"
	"lyricvideo/internal/service"
	"lyricvideo/internal/store"
)

// VideoService 歌词视频生成
type VideoService interface {
	Run(ctx context.Context, req model.VideoGenerationRequest) (*service.Result, error)
}

// NewRouter 注册视频、工具、健康检查与指标路由
func NewRouter(svc VideoService, toolset ...einotool.InvokableTool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/videos", handleGenerateVideo(svc))

	byName := make(map[string]einotool.InvokableTool, len(toolset))
	infos := make([]*schema.ToolInfo, 0, len(toolset))
	for _, t := range toolset {
		info, err := t.Info(context.Background())
		if err != nil {
			logrus.WithError(err).Warn("skipping tool without info")
			continue
		}
		byName[info.Name] = t
		infos = append(infos, info)
	}
	router.GET("/tools/info", func(c *gin.Context) { c.JSON(http.StatusOK, infos) })
	router.POST("/tools/:name", handleToolInvoke(byName))
	return router
}

// requestLogger 为每个请求分配 request_id 并记录耗时
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
		logrus.WithFields(logrus.Fields{
			"component":  "http",
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Millisecond),
		}).Info("request handled")
	}
}

// handleGenerateVideo 处理视频生成请求
func handleGenerateVideo(svc VideoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.VideoGenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式: " + err.Error()})
			return
		}
		res, err := svc.Run(c.Request.Context(), req)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": fmt.Sprintf("生成视频失败: %v", err)})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleToolInvoke 直接以请求体作为工具参数
func handleToolInvoke(byName map[string]einotool.InvokableTool) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := byName[c.Param("name")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "未知工具: " + c.Param("name")})
			return
		}
		body, err := c.GetRawData()
		if err != nil || len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求格式"})
			return
		}
		result, err := t.InvokableRun(c.Request.Context(), string(body))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": fmt.Sprintf("工具执行失败: %v", err)})
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(result))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSongNotFound), errors.Is(err, service.ErrNoLyrics):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
