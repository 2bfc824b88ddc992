package style

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/llm"
	"lyricvideo/internal/model"
)

const styleMaxTokens = 1000

var styleTemplate = llm.NewTemplate("style_guide", `You're creating a lyric video for a Korean learning song.

Song: {{.title}}{{if .artist}} by {{.artist}}{{end}}
Song description: {{.description}}

Full song context:
{{.all_lyrics}}

Target segment we're generating:
{{.target_lyrics}}

Create a visual foundation for this segment:
1. What's the overall visual style? (art medium, colors, mood, aesthetic)
2. What's happening in this segment of the song? (brief story summary)
3. Is this segment a conversation between two people (a man and a woman addressing each other)?

Respond in JSON format:
{
  "visual_style": "description of art style, colors, mood",
  "segment_story": "brief narrative of what's happening",
  "is_conversation": true
}

Keep it simple - just style and vibe. No rigid rules about characters or settings.`)

// Resolver 生成一次任务的风格指南
type Resolver struct {
	llm          llm.Generator
	defaultStyle string
	log          *logrus.Entry
}

// NewResolver defaultStyle 用于自定义故事时的固定画风
func NewResolver(gen llm.Generator, defaultStyle string) *Resolver {
	return &Resolver{
		llm:          gen,
		defaultStyle: defaultStyle,
		log:          logrus.WithField("component", "style"),
	}
}

type styleResponse struct {
	VisualStyle    string `json:"visual_style"`
	SegmentStory   string `json:"segment_story"`
	IsConversation *bool  `json:"is_conversation"`
}

// Resolve 自定义故事优先，否则交给语言模型
func (r *Resolver) Resolve(ctx context.Context, song model.SongMetadata, all, target []model.LyricLine, custom *model.CustomCreativeInput) (model.StyleGuide, error) {
	if story, ok := custom.Story(); ok {
		guide := model.StyleGuide{
			VisualStyle:    r.defaultStyle,
			SegmentStory:   story,
			IsConversation: true,
		}
		if v, ok := custom.ConversationOverride(); ok {
			guide.IsConversation = v
		}
		r.log.Info("using custom story description")
		return guide, nil
	}

	prompt, err := styleTemplate.Render(ctx, map[string]any{
		"title":         song.Title,
		"artist":        song.ArtistName(),
		"description":   song.DescriptionText(),
		"all_lyrics":    FormatLines(all),
		"target_lyrics": FormatLines(target),
	})
	if err != nil {
		return model.StyleGuide{}, err
	}
	text, err := r.llm.Generate(ctx, prompt, styleMaxTokens)
	if err != nil {
		return model.StyleGuide{}, fmt.Errorf("style guide request: %w", err)
	}

	var resp styleResponse
	if err := llm.ExtractJSON(text, &resp); err != nil {
		return model.StyleGuide{}, err
	}
	if strings.TrimSpace(resp.VisualStyle) == "" || strings.TrimSpace(resp.SegmentStory) == "" {
		return model.StyleGuide{}, llm.NewParseError(text, fmt.Errorf("%w: visual_style/segment_story", llm.ErrMissingField))
	}

	guide := model.StyleGuide{
		VisualStyle:    resp.VisualStyle,
		SegmentStory:   resp.SegmentStory,
		IsConversation: true,
	}
	if resp.IsConversation != nil {
		guide.IsConversation = *resp.IsConversation
	}
	if v, ok := custom.ConversationOverride(); ok {
		guide.IsConversation = v
	}
	r.log.WithField("conversation", guide.IsConversation).Info("style guide created")
	return guide, nil
}

// FormatLines 按 "Line n: english / korean" 逐行格式化
func FormatLines(lines []model.LyricLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Line %d: %s / %s", l.LineNumber, l.EnglishText, l.KoreanText)
	}
	return b.String()
}
