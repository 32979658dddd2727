package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/notify"
)

var (
	ErrMissingCredential = errors.New("PUSH_KEY is not set")
	ErrMissingChatID     = errors.New("TELEGRAM_CHAT_ID is not set")
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppPort  string `env:"APP_PORT" envDefault:"9000"`

	// 两者都配置时 API 启用 Basic Auth
	BasicAuthUser string `env:"APP_BASIC_USER"`
	BasicAuthPass string `env:"APP_BASIC_PASS"`

	// 推送
	PushType       string `env:"PUSH_TYPE" envDefault:"pushplus"`
	PushKey        string `env:"PUSH_KEY"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// 采集
	City          string        `env:"CITY" envDefault:"北京"`
	HotLimit      int           `env:"HOT_LIMIT" envDefault:"6"`
	ToutiaoLimit  int           `env:"TOUTIAO_LIMIT" envDefault:"6"`
	DouyinLimit   int           `env:"DOUYIN_LIMIT" envDefault:"6"`
	TechLimit     int           `env:"TECH_LIMIT" envDefault:"5"`
	AILimit       int           `env:"AI_LIMIT" envDefault:"3"`
	SourceTimeout time.Duration `env:"SOURCE_TIMEOUT" envDefault:"10s"`
	UserAgent     string        `env:"USER_AGENT"`
	FetchParallel bool          `env:"FETCH_PARALLEL" envDefault:"false"`
	TechFeeds     []string      `env:"TECH_FEEDS" envSeparator:","`
	AIFeeds       []string      `env:"AI_FEEDS" envSeparator:","`

	AIKeywords           []string `env:"AI_KEYWORDS" envSeparator:","`
	AIKeywordsIgnoreCase bool     `env:"AI_KEYWORDS_IGNORE_CASE" envDefault:"false"`

	// 易客天气备用接口，未配置时该来源直接失败
	WeatherAppID     string `env:"WEATHER_APPID"`
	WeatherAppSecret string `env:"WEATHER_APPSECRET"`

	// 存储，均为可选
	PostgresDSN    string        `env:"POSTGRES_DSN"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	DigestCacheTTL time.Duration `env:"DIGEST_CACHE_TTL" envDefault:"5m"`
}

// Load 先加载 .env（可选），再解析环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.PushType = strings.ToLower(strings.TrimSpace(cfg.PushType))
	return cfg, nil
}

// ValidateDelivery 推送配置检查，失败时应在任何采集之前退出
func (c *Config) ValidateDelivery() error {
	switch c.PushType {
	case notify.ChannelServerChan, notify.ChannelPushPlus:
	case notify.ChannelTelegram:
		if c.TelegramChatID == 0 {
			return ErrMissingChatID
		}
	default:
		return fmt.Errorf("%w: %q", notify.ErrUnsupportedChannel, c.PushType)
	}
	if strings.TrimSpace(c.PushKey) == "" {
		return ErrMissingCredential
	}
	return nil
}

// Limits 各分类请求条数
func (c *Config) Limits() digest.Limits {
	return digest.Limits{
		Trending: c.HotLimit,
		Toutiao:  c.ToutiaoLimit,
		Douyin:   c.DouyinLimit,
		Tech:     c.TechLimit,
		AI:       c.AILimit,
	}
}

// TechFeedURLs 未配置时使用默认订阅源
func (c *Config) TechFeedURLs() []string {
	if feeds := nonEmpty(c.TechFeeds); len(feeds) > 0 {
		return feeds
	}
	return collector.DefaultTechFeeds
}

func (c *Config) AIFeedURLs() []string {
	if feeds := nonEmpty(c.AIFeeds); len(feeds) > 0 {
		return feeds
	}
	return collector.DefaultAIFeeds
}

// KeywordPolicy AI 兜底筛选规则
func (c *Config) KeywordPolicy() collector.KeywordPolicy {
	return collector.KeywordPolicy{
		Keywords:   nonEmpty(c.AIKeywords),
		IgnoreCase: c.AIKeywordsIgnoreCase,
	}
}

// WeatherOptions 天气来源配置
func (c *Config) WeatherOptions() collector.WeatherOptions {
	return collector.WeatherOptions{
		YikeAppID:     c.WeatherAppID,
		YikeAppSecret: c.WeatherAppSecret,
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
