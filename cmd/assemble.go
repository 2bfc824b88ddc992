package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"lyricvideo/internal/model"
)

var assembleOpts struct {
	req     model.VideoGenerationRequest
	endLine int
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "用 frames 目录中已生成的帧重新合成视频",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := assembleOpts.req
		if assembleOpts.endLine > 0 {
			end := assembleOpts.endLine
			req.EndLine = &end
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.svc.Assemble(cmd.Context(), req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	f := assembleCmd.Flags()
	f.StringVarP(&assembleOpts.req.SongID, "song", "s", "", "歌曲ID")
	f.IntVar(&assembleOpts.req.StartLine, "start", 1, "起始行号")
	f.IntVar(&assembleOpts.endLine, "end", 0, "结束行号，0 表示最后一行")
	f.StringVarP(&assembleOpts.req.OutputFilename, "output", "o", "", "输出文件名")
	f.BoolVar(&assembleOpts.req.Upload, "upload", false, "合成后上传到 Google Drive")
	f.BoolVar(&assembleOpts.req.DeleteAfterUpload, "delete-after-upload", false, "上传成功后删除本地视频")
	_ = assembleCmd.MarkFlagRequired("song")
}
