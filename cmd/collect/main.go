package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/LJTian/TrendingDigest/internal/app"
	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/config"
	"github.com/LJTian/TrendingDigest/internal/logging"
)

var opts struct {
	Category string `long:"category" short:"c" description:"only fetch this category (weather, trending, toutiao, douyin, tech, ai)"`
	City     string `long:"city" description:"override weather city"`
	Limit    int    `long:"limit" short:"n" default:"10" description:"items per category"`
}

// 一个仅执行一次采集的命令行入口：不推送，结果以 JSON 打印到标准输出，便于排查数据源
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
	// 日志写到 stderr，避免混入 JSON 输出
	log := logging.NewWithWriter(os.Stderr, cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	city := cfg.City
	if opts.City != "" {
		city = opts.City
	}

	res, err := app.Collect(ctx, app.NewRunner(cfg, log), collector.Category(opts.Category), city, opts.Limit)
	if err != nil {
		log.Error().Err(err).Msg("collect failed")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Error().Err(err).Msg("encode failed")
		return 1
	}
	return 0
}
