package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"lyricvideo/internal/character"
	"lyricvideo/internal/compositor"
	"lyricvideo/internal/config"
	"lyricvideo/internal/director"
	"lyricvideo/internal/llm"
	"lyricvideo/internal/reference"
	"lyricvideo/internal/service"
	"lyricvideo/internal/store"
	"lyricvideo/internal/style"
	"lyricvideo/internal/upload"
	"lyricvideo/internal/volc"
)

// app 进程内组装好的组件
type app struct {
	cfg     *config.Config
	svc     *service.LyricVideoService
	images  *volc.ArkClient
	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Strategy != "" {
		cfg.Generation.ReferenceStrategy = opts.Strategy
	}
	if opts.Mock {
		cfg.Ark.Mock = true
	}

	logCloser, err := config.InitLogging(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	a := &app{cfg: cfg, closers: []func(){func() { _ = logCloser.Close() }}}
	if err := a.build(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Paths.EnsureDirs(); err != nil {
		return err
	}

	gen, err := llm.NewArkChatClient(ctx, cfg.Ark)
	if err != nil {
		return err
	}
	a.images = volc.NewArkClient(cfg.Ark)
	policy, err := reference.NewPolicy(cfg.Generation.ReferenceStrategy, gen)
	if err != nil {
		return err
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)

	designer := character.NewDesigner(gen, a.images, character.Options{
		Size:           cfg.Video.ImageSizeSpec,
		NegativePrompt: director.NegativePrompt,
		Delay:          cfg.Generation.CharacterDelay,
	})
	dir := director.New(gen, a.images, designer, policy, reference.NewLoader(), director.Options{
		FramesDir:     cfg.Paths.FramesDir(),
		VideosDir:     cfg.Paths.VideosDir(),
		Size:          cfg.Video.ImageSizeSpec,
		LineDelay:     cfg.Generation.LineDelay,
		HistoryWindow: cfg.Generation.HistoryWindow,
	})

	deps := service.Dependencies{
		Songs:      store.NewSongStore(pool),
		Audio:      store.NewAudioFetcher(cfg.Storage.SupabaseURL, cfg.Storage.AudioTimeout),
		Style:      style.NewResolver(gen, cfg.Generation.DefaultVisualStyle),
		Director:   dir,
		Compositor: compositor.New(cfg.Video, cfg.Paths.FontPath, compositor.NewExecRunner()),
	}
	// 接口字段只在上传器可用时赋值，避免持有 nil 指针
	up, err := upload.NewDriveUploader(ctx, cfg.Drive)
	switch {
	case err == nil:
		deps.Uploader = up
	case errors.Is(err, upload.ErrDriveDisabled):
		logrus.Info("google drive upload disabled")
	default:
		logrus.WithError(err).Warn("google drive upload unavailable")
	}

	a.svc = service.NewLyricVideoService(deps, service.Options{
		VideosDir: cfg.Paths.VideosDir(),
		TempDir:   cfg.Paths.TempDir(),
		FramesDir: cfg.Paths.FramesDir(),
	})
	logrus.WithFields(logrus.Fields{
		"strategy": policy.Name(),
		"mock":     cfg.Ark.Mock,
		"output":   cfg.Paths.OutputDir,
	}).Info("lyricvideo ready")
	return nil
}

// close 逆序释放资源
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
