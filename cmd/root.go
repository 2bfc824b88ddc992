package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalOptions 所有子命令共用的参数
type globalOptions struct {
	ConfigPath string
	Strategy   string
	Mock       bool
}

var opts globalOptions

var rootCmd = &cobra.Command{
	Use:           "lyricvideo",
	Short:         "为韩语学习歌曲生成逐行插画歌词视频",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML 配置文件路径，为空时只读取环境变量")
	rootCmd.PersistentFlags().StringVar(&opts.Strategy, "strategy", "", "参考图策略：fixed 或 adaptive，覆盖 REFERENCE_STRATEGY")
	rootCmd.PersistentFlags().BoolVar(&opts.Mock, "mock", false, "离线模式，不调用方舟接口")

	rootCmd.AddCommand(serveCmd, generateCmd, assembleCmd, batchCmd)
}

// Execute 由 main.go 调用，收到 SIGINT/SIGTERM 时取消上下文
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
