package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lyricvideo/internal/server"
	"lyricvideo/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.AppEnv == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := server.NewRouter(a.svc,
			tools.NewImageTool(a.images, a.cfg.Video.ImageSizeSpec),
			tools.NewLyricVideoTool(a.svc),
		)
		srv := &http.Server{
			Addr:    a.cfg.Server.Addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			logrus.Infof("服务器启动在 %s", a.cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// 等待中断信号
		select {
		case <-ctx.Done():
		case err := <-errCh:
			return err
		}
		logrus.Info("关闭服务器...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logrus.Info("服务器已关闭")
		return nil
	},
}
