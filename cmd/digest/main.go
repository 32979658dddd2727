package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/LJTian/TrendingDigest/internal/app"
	"github.com/LJTian/TrendingDigest/internal/config"
	"github.com/LJTian/TrendingDigest/internal/logging"
	"github.com/LJTian/TrendingDigest/internal/notify"
	"github.com/LJTian/TrendingDigest/internal/render"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

var opts struct {
	DryRun bool   `long:"dry-run" description:"fetch and render only, do not push"`
	Out    string `long:"out" description:"write rendered digest to file"`
	Title  string `long:"title" description:"override digest title"`
	City   string `long:"city" description:"override weather city"`
}

// 执行一次采集 + 推送后退出，由外部定时任务触发
func main() {
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		l := logging.New("local", "info")
		l.Error().Err(err).Msg("load config failed")
		return 1
	}
	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	// 推送配置有误时不做任何采集
	var pusher notify.Pusher
	if !opts.DryRun {
		if err := cfg.ValidateDelivery(); err != nil {
			log.Error().Err(err).Msg("invalid delivery config")
			return 1
		}
		pusher, err = notify.New(cfg.PushType, cfg.PushKey, cfg.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("init pusher failed")
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	city := cfg.City
	if opts.City != "" {
		city = opts.City
	}

	report := app.NewRunner(cfg, log).Run(ctx, city)

	now := time.Now()
	title := opts.Title
	if title == "" {
		title = render.Title(now)
	}

	if opts.Out != "" {
		format := notify.FormatHTML
		if pusher != nil {
			format = pusher.Format()
		}
		body, err := app.Body(format, report, title, now)
		if err != nil {
			log.Error().Err(err).Msg("render failed")
			return 1
		}
		if err := os.WriteFile(opts.Out, []byte(body), 0o644); err != nil {
			log.Error().Err(err).Str("path", opts.Out).Msg("write output failed")
			return 1
		}
		log.Info().Str("path", opts.Out).Msg("digest written")
	}

	if opts.DryRun {
		log.Info().Int("items", report.TotalItems()).Msg("dry run, skip push")
		return 0
	}

	store, err := storage.NewStore(storage.Options{PostgresDSN: cfg.PostgresDSN}, log)
	if err != nil {
		// 推送记录不可用不影响推送
		log.Warn().Err(err).Msg("init store failed, push history disabled")
		store = storage.NewMemoryStore(cfg.DigestCacheTTL, log)
	}
	defer store.Close()

	if err := app.Deliver(ctx, pusher, store, report, city, title, now, log); err != nil {
		log.Error().Err(err).Msg("push failed")
		return 1
	}
	return 0
}
