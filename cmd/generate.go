package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"lyricvideo/internal/model"
)

var generateOpts struct {
	req          model.VideoGenerationRequest
	endLine      int
	story        string
	male         string
	female       string
	conversation bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "为一首歌的指定行区间生成视频",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := generateOpts.req
		if generateOpts.endLine > 0 {
			end := generateOpts.endLine
			req.EndLine = &end
		}
		custom := &model.CustomCreativeInput{
			StoryDescription:           generateOpts.story,
			CharacterMaleDescription:   generateOpts.male,
			CharacterFemaleDescription: generateOpts.female,
		}
		if cmd.Flags().Changed("conversation") {
			v := generateOpts.conversation
			custom.IsConversation = &v
		}
		if *custom != (model.CustomCreativeInput{}) {
			req.CustomInput = custom
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.svc.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.req.SongID, "song", "s", "", "歌曲ID")
	f.IntVar(&generateOpts.req.StartLine, "start", 1, "起始行号")
	f.IntVar(&generateOpts.endLine, "end", 0, "结束行号，0 表示最后一行")
	f.StringVarP(&generateOpts.req.OutputFilename, "output", "o", "", "输出文件名，默认 song_<id>_lines_<s>-<e>.mp4")
	f.BoolVar(&generateOpts.req.Upload, "upload", false, "生成后上传到 Google Drive")
	f.BoolVar(&generateOpts.req.DeleteAfterUpload, "delete-after-upload", false, "上传成功后删除本地视频")
	f.StringVar(&generateOpts.story, "story", "", "自定义故事梗概，提供后跳过风格推断")
	f.StringVar(&generateOpts.male, "male", "", "男性角色外观描述")
	f.StringVar(&generateOpts.female, "female", "", "女性角色外观描述")
	f.BoolVar(&generateOpts.conversation, "conversation", true, "是否为双人对话")
	_ = generateCmd.MarkFlagRequired("song")
}
