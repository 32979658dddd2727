package main

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/TrendingDigest/internal/api"
	"github.com/LJTian/TrendingDigest/internal/app"
	"github.com/LJTian/TrendingDigest/internal/config"
	"github.com/LJTian/TrendingDigest/internal/logging"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.New("local", "info")
		l.Error().Err(err).Msg("load config failed")
		os.Exit(1)
	}
	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	store, err := storage.NewStore(storage.Options{
		PostgresDSN: cfg.PostgresDSN,
		RedisAddr:   cfg.RedisAddr,
		CacheTTL:    cfg.DigestCacheTTL,
	}, log)
	if err != nil {
		// 存储仅用于缓存和推送记录，降级为进程内缓存
		log.Warn().Err(err).Msg("init store failed, fallback to memory cache")
		store = storage.NewMemoryStore(cfg.DigestCacheTTL, log)
	}
	defer store.Close()

	if cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health、/metrics 免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass, "/metrics"))
	}

	srv := api.NewServer(app.NewRunner(cfg, log), store, cfg.City, log)
	srv.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Info().Str("addr", addr).Msg("starting api server")
	if err := r.Run(addr); err != nil {
		log.Error().Err(err).Msg("server exit")
	}
}
