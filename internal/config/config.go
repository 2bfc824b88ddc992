package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config 应用全部配置，进程启动时构建一次并显式传入各组件
type Config struct {
	AppEnv     string           `yaml:"app_env" env:"APP_ENV" env-default:"development"`
	Log        LogConfig        `yaml:"log"`
	Ark        ArkConfig        `yaml:"ark"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Drive      DriveConfig      `yaml:"drive"`
	Server     ServerConfig     `yaml:"server"`
	Paths      PathsConfig      `yaml:"paths"`
	Video      VideoConfig      `yaml:"video"`
	Generation GenerationConfig `yaml:"generation"`
	Batch      BatchConfig      `yaml:"batch"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
	File   string `yaml:"file" env:"LOG_FILE" env-default:"app.log"`
}

// ArkConfig 方舟平台配置，文本与图片共用同一个 API Key
type ArkConfig struct {
	APIKey       string        `yaml:"api_key" env:"ARK_API_KEY"`
	BaseURL      string        `yaml:"base_url" env:"ARK_BASE_URL" env-default:"https://ark.cn-beijing.volces.com"`
	ChatModel    string        `yaml:"chat_model" env:"ARK_CHAT_MODEL" env-default:"ep-20250220181854-c8s82"`
	ImageModel   string        `yaml:"image_model" env:"ARK_IMAGE_MODEL" env-default:"seedream-4-0-250828"`
	Mock         bool          `yaml:"mock" env:"ARK_MOCK" env-default:"false"`
	ChatTimeout  time.Duration `yaml:"chat_timeout" env:"ARK_CHAT_TIMEOUT" env-default:"60s"`
	ImageTimeout time.Duration `yaml:"image_timeout" env:"ARK_IMAGE_TIMEOUT" env-default:"120s"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"ARK_FETCH_TIMEOUT" env-default:"60s"`
}

// DatabaseConfig 歌曲元数据库
type DatabaseConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// StorageConfig 音频对象存储
type StorageConfig struct {
	SupabaseURL  string        `yaml:"supabase_url" env:"SUPABASE_URL"`
	AudioTimeout time.Duration `yaml:"audio_timeout" env:"AUDIO_FETCH_TIMEOUT" env-default:"30s"`
}

// DriveConfig Google Drive 上传配置
type DriveConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_DRIVE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_DRIVE_CLIENT_SECRET"`
	RefreshToken string `yaml:"refresh_token" env:"GOOGLE_DRIVE_REFRESH_TOKEN"`
	FolderID     string `yaml:"folder_id" env:"GOOGLE_DRIVE_ROOT_FOLDER_ID"`
}

// Enabled 凭据齐全时才启用上传
func (d DriveConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != "" && d.RefreshToken != ""
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
}

// PathsConfig 输出目录
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR" env-default:"output"`
	FontPath  string `yaml:"font_path" env:"FONT_PATH" env-default:"fonts/MaruBuri-Bold.ttf"`
}

// FramesDir 帧图片目录
func (p PathsConfig) FramesDir() string { return filepath.Join(p.OutputDir, "frames") }

// VideosDir 视频、日志与元数据目录
func (p PathsConfig) VideosDir() string { return filepath.Join(p.OutputDir, "videos") }

// TempDir 临时文件目录
func (p PathsConfig) TempDir() string { return filepath.Join(p.OutputDir, "temp") }

// EnsureDirs 创建所有输出目录
func (p PathsConfig) EnsureDirs() error {
	for _, dir := range []string{p.FramesDir(), p.VideosDir(), p.TempDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// VideoConfig 画面与字幕布局
type VideoConfig struct {
	Width         int    `yaml:"width" env:"VIDEO_WIDTH" env-default:"1080"`
	Height        int    `yaml:"height" env:"VIDEO_HEIGHT" env-default:"1920"`
	ImageSize     int    `yaml:"image_size" env:"IMAGE_SIZE" env-default:"1080"`
	FPS           int    `yaml:"fps" env:"VIDEO_FPS" env-default:"30"`
	TopPadding    int    `yaml:"top_padding" env:"IMAGE_TOP_PADDING" env-default:"150"`
	TextStartY    int    `yaml:"text_start_y" env:"TEXT_START_Y" env-default:"1270"`
	TextSpacing   int    `yaml:"text_spacing" env:"TEXT_SPACING" env-default:"78"`
	FontSize      int    `yaml:"font_size" env:"FONT_SIZE" env-default:"50"`
	TextColor     string `yaml:"text_color" env:"TEXT_COLOR" env-default:"white"`
	FFmpegBinary  string `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY" env-default:"ffmpeg"`
	ImageSizeSpec string `yaml:"image_size_spec" env:"IMAGE_SIZE_SPEC" env-default:"1080x1080"`
}

// GenerationConfig 图片序列生成参数
type GenerationConfig struct {
	ReferenceStrategy  string        `yaml:"reference_strategy" env:"REFERENCE_STRATEGY" env-default:"fixed"`
	CharacterDelay     time.Duration `yaml:"character_delay" env:"CHARACTER_DELAY" env-default:"2s"`
	LineDelay          time.Duration `yaml:"line_delay" env:"LINE_DELAY" env-default:"1s"`
	HistoryWindow      int           `yaml:"history_window" env:"HISTORY_WINDOW" env-default:"0"`
	DefaultVisualStyle string        `yaml:"default_visual_style" env:"STYLE_DEFAULT_VISUAL" env-default:"Flat vector illustration with bold clean outlines, warm yellows, soft blues and coral accents, gentle cinematic lighting, expressive characters"`
}

// BatchConfig 批量模式
type BatchConfig struct {
	Language          string        `yaml:"language" env:"BATCH_LANGUAGE" env-default:"korean"`
	StartLine         int           `yaml:"start_line" env:"BATCH_START_LINE" env-default:"1"`
	EndLine           int           `yaml:"end_line" env:"BATCH_END_LINE" env-default:"8"`
	SongDelay         time.Duration `yaml:"song_delay" env:"BATCH_SONG_DELAY" env-default:"5s"`
	Upload            bool          `yaml:"upload" env:"BATCH_UPLOAD" env-default:"true"`
	DeleteAfterUpload bool          `yaml:"delete_after_upload" env:"BATCH_DELETE_AFTER_UPLOAD" env-default:"true"`
}

// Load 加载 .env 与环境变量，path 不为空时先读取 YAML 文件
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// Validate 检查生成任务必需的配置
func (c *Config) Validate() error {
	var errs []error
	if !c.Ark.Mock && c.Ark.APIKey == "" {
		errs = append(errs, errors.New("ARK_API_KEY is required unless ARK_MOCK is set"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Generation.ReferenceStrategy {
	case "fixed", "adaptive":
	default:
		errs = append(errs, fmt.Errorf("unknown REFERENCE_STRATEGY %q", c.Generation.ReferenceStrategy))
	}
	return errors.Join(errs...)
}
