package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var batchOpts struct {
	language  string
	start     int
	end       int
	noUpload  bool
	keepLocal bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "为所有已发布歌曲批量生成视频",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		cfg := a.cfg.Batch
		f := cmd.Flags()
		if f.Changed("language") {
			cfg.Language = batchOpts.language
		}
		if f.Changed("start") {
			cfg.StartLine = batchOpts.start
		}
		if f.Changed("end") {
			cfg.EndLine = batchOpts.end
		}
		if batchOpts.noUpload {
			cfg.Upload = false
		}
		if batchOpts.keepLocal {
			cfg.DeleteAfterUpload = false
		}

		report, err := a.svc.RunBatch(cmd.Context(), cfg)
		if report != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Successful: %d/%d\nFailed: %d/%d\n",
				len(report.Successful), report.Total, len(report.Failed), report.Total)
			if report.ReportPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", report.ReportPath)
			}
		}
		return err
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.language, "language", "korean", "歌曲语言")
	f.IntVar(&batchOpts.start, "start", 1, "起始行号")
	f.IntVar(&batchOpts.end, "end", 8, "结束行号")
	f.BoolVar(&batchOpts.noUpload, "no-upload", false, "不上传到 Google Drive")
	f.BoolVar(&batchOpts.keepLocal, "keep-local", false, "上传后保留本地视频")
}
