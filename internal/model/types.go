package model

import "strings"

// LyricLine 歌词行，由元数据库持有，核心只读
type LyricLine struct {
	ID                string         `json:"id" db:"id"`
	SongID            string         `json:"song_id" db:"song_id"`
	LineNumber        int            `json:"line_number" db:"line_number"`
	EnglishText       string         `json:"english_text" db:"english_text"`
	KoreanText        string         `json:"korean_text" db:"korean_text"`
	StartTimeSeconds  float64        `json:"start_time_seconds" db:"start_time_seconds"`
	EndTimeSeconds    float64        `json:"end_time_seconds" db:"end_time_seconds"`
	VoiceOverFilePath *string        `json:"voice_over_file_path,omitempty" db:"voice_over_file_path"`
	BreakdownData     map[string]any `json:"breakdown_data,omitempty" db:"breakdown_data"`
	IsPublished       bool           `json:"is_published" db:"is_published"`
}

// SongMetadata 歌曲元数据
type SongMetadata struct {
	ID                 string   `json:"id" db:"id"`
	Title              string   `json:"title" db:"title"`
	Artist             *string  `json:"artist,omitempty" db:"artist"`
	Description        *string  `json:"description,omitempty" db:"description"`
	AudioFilePath      string   `json:"audio_file_path" db:"audio_file_path"`
	DurationSeconds    *float64 `json:"duration_seconds,omitempty" db:"duration_seconds"`
	ArtistGender       *string  `json:"artist_gender,omitempty" db:"artist_gender"`
	OriginalLyricsText *string  `json:"original_lyrics_text,omitempty" db:"original_lyrics_text"`
	CoverImagePrompt   *string  `json:"cover_image_prompt,omitempty" db:"cover_image_prompt"`
}

// ArtistName 返回艺人名，为空时返回空串
func (s SongMetadata) ArtistName() string {
	if s.Artist == nil {
		return ""
	}
	return *s.Artist
}

// DescriptionText 返回歌曲描述，为空时返回 N/A
func (s SongMetadata) DescriptionText() string {
	if s.Description == nil || strings.TrimSpace(*s.Description) == "" {
		return "N/A"
	}
	return *s.Description
}

// SongSummary 批量模式下的歌曲列表项
type SongSummary struct {
	ID          string `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Language    string `json:"language" db:"language"`
	IsPublished bool   `json:"is_published" db:"is_published"`
}

// StyleGuide 一次生成任务的创意简报，创建后不再修改
type StyleGuide struct {
	VisualStyle    string `json:"visual_style"`
	SegmentStory   string `json:"segment_story"`
	IsConversation bool   `json:"is_conversation"`
}

// CustomCreativeInput 调用方提供的覆盖项，空串视为未提供
type CustomCreativeInput struct {
	StoryDescription           string `json:"story_description,omitempty"`
	CharacterMaleDescription   string `json:"character_male_description,omitempty"`
	CharacterFemaleDescription string `json:"character_female_description,omitempty"`
	IsConversation             *bool  `json:"is_conversation,omitempty"`
}

// Story 返回自定义故事原文，仅在判断是否提供时忽略空白
func (c *CustomCreativeInput) Story() (string, bool) {
	if c == nil {
		return "", false
	}
	return c.StoryDescription, strings.TrimSpace(c.StoryDescription) != ""
}

// CharacterDescription 返回指定角色的自定义描述
func (c *CustomCreativeInput) CharacterDescription(role Role) (string, bool) {
	if c == nil {
		return "", false
	}
	var s string
	switch role {
	case RoleMale:
		s = c.CharacterMaleDescription
	case RoleFemale:
		s = c.CharacterFemaleDescription
	}
	return s, strings.TrimSpace(s) != ""
}

// ConversationOverride 返回对话标记覆盖值
func (c *CustomCreativeInput) ConversationOverride() (bool, bool) {
	if c == nil || c.IsConversation == nil {
		return false, false
	}
	return *c.IsConversation, true
}

// Role 说话角色
type Role string

const (
	RoleMale   Role = "male"
	RoleFemale Role = "female"
)

// DefaultRoles 固定的角色顺序
var DefaultRoles = []Role{RoleMale, RoleFemale}

// CharacterReference 角色定妆图及其提示词
type CharacterReference struct {
	Role      Role   `json:"role"`
	ImagePath string `json:"image_path"`
	Prompt    string `json:"prompt"`
}

// PromptDecision 后续行的提示词决策
type PromptDecision struct {
	SeedreamPrompt         string `json:"seedream_prompt"`
	CreativeReasoning      string `json:"creative_reasoning"`
	UsePreviousAsReference *bool  `json:"use_previous_as_reference,omitempty"`
}

// UseHistory 缺省时不使用历史参考图
func (d PromptDecision) UseHistory() bool {
	return d.UsePreviousAsReference != nil && *d.UsePreviousAsReference
}

// GeneratedImage 单行生成结果
type GeneratedImage struct {
	LineNumber     int     `json:"line_number"`
	ImagePath      string  `json:"image_path"`
	PromptUsed     string  `json:"prompt_used"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	UsedReference  bool    `json:"used_reference"`
	ReferenceImage string  `json:"reference_image,omitempty"`
	GenerationTime float64 `json:"generation_time"`
}

// VideoGenerationRequest 视频生成请求
type VideoGenerationRequest struct {
	SongID            string               `json:"song_id" binding:"required"`
	StartLine         int                  `json:"start_line"`
	EndLine           *int                 `json:"end_line,omitempty"`
	Resolution        string               `json:"resolution,omitempty"`
	OutputFilename    string               `json:"output_filename,omitempty"`
	CustomInput       *CustomCreativeInput `json:"custom_input,omitempty"`
	Upload            bool                 `json:"upload,omitempty"`
	DeleteAfterUpload bool                 `json:"delete_after_upload,omitempty"`
}

// Normalize 填充默认值
func (r *VideoGenerationRequest) Normalize() {
	if r.StartLine == 0 {
		r.StartLine = 1
	}
	if r.Resolution == "" {
		r.Resolution = "4k"
	}
}

// VideoMetadata 视频旁车文件内容
type VideoMetadata struct {
	SongID      string           `json:"song_id"`
	Title       string           `json:"title"`
	Artist      *string          `json:"artist"`
	StartLine   int              `json:"start_line"`
	EndLine     int              `json:"end_line"`
	TotalImages int              `json:"total_images"`
	StyleGuide  *StyleGuide      `json:"style_guide,omitempty"`
	Images      []GeneratedImage `json:"images"`
	// AssembledFromExisting 由磁盘上已有帧重新合成
	AssembledFromExisting bool `json:"assembled_from_existing,omitempty"`
}
