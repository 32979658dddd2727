package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/config"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/notify"
	"github.com/LJTian/TrendingDigest/internal/render"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

// NewRunner 按配置组装全部采集链
func NewRunner(cfg *config.Config, log zerolog.Logger) *digest.Runner {
	t := collector.NewTransport(cfg.SourceTimeout, cfg.UserAgent)

	tech := collector.NewFeedSetFromURLs("tech", collector.CategoryTech, log, t, cfg.TechFeedURLs())
	aiFeeds := collector.NewFeedSetFromURLs("ai", collector.CategoryAI, log, t, cfg.AIFeedURLs())

	return &digest.Runner{
		Weather: collector.NewWeatherFetcher(t, log, cfg.WeatherOptions()),
		Categories: []digest.CategoryFetcher{
			collector.NewTrendingChain(t, log),
			collector.NewToutiaoChain(t, log),
			collector.NewDouyinChain(t, log),
			tech,
		},
		AI:       collector.NewAINews(aiFeeds, cfg.KeywordPolicy(), log),
		Limits:   cfg.Limits(),
		Parallel: cfg.FetchParallel,
		Log:      log,
	}
}

// ErrUnknownCategory 采集命令指定了不存在的分类
var ErrUnknownCategory = errors.New("unknown category")

// CollectResult 只采集不推送的结果
type CollectResult struct {
	Weather  *collector.WeatherReport   `json:"weather,omitempty"`
	Sections []collector.CategoryResult `json:"sections"`
}

// Collect 执行一次采集；category 为空时包括天气与 AI 在内全部采集。
// 单独采集 AI 时会先采集科技资讯作为关键词兜底的输入，但不输出。
func Collect(ctx context.Context, r *digest.Runner, category collector.Category, city string, limit int) (CollectResult, error) {
	out := CollectResult{Sections: []collector.CategoryResult{}}
	all := category == ""
	known := all

	if all || category == collector.CategoryWeather {
		known = true
		if r.Weather != nil {
			w := r.Weather.Fetch(ctx, city)
			out.Weather = &w
		}
	}

	var tech []collector.NewsItem
	for _, f := range r.Categories {
		c := f.Category()
		want := all || c == category
		if !want && (category != collector.CategoryAI || c != collector.CategoryTech) {
			continue
		}
		res := f.Fetch(ctx, limit)
		r.Log.Info().Str("category", string(c)).Str("source", res.Source).Int("items", res.Len()).Msg("collected")
		if c == collector.CategoryTech {
			tech = res.Items
		}
		if want {
			known = true
			out.Sections = append(out.Sections, res)
		}
	}

	if all || category == collector.CategoryAI {
		known = true
		if r.AI != nil {
			res := r.AI.Fetch(ctx, limit, tech)
			r.Log.Info().Str("category", string(res.Category)).Str("source", res.Source).Int("items", res.Len()).Msg("collected")
			out.Sections = append(out.Sections, res)
		}
	}

	if !known {
		return out, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return out, nil
}

// Body 按渠道需要的格式渲染正文
func Body(format notify.Format, report digest.AggregateReport, title string, now time.Time) (string, error) {
	if format == notify.FormatText {
		return render.Text(report, title, now), nil
	}
	return render.HTML(report, title, now)
}

// Deliver 渲染并推送，结果写入推送记录；即使所有分类为空也会推送
func Deliver(ctx context.Context, p notify.Pusher, store *storage.Store, report digest.AggregateReport, city, title string, now time.Time, log zerolog.Logger) error {
	body, err := Body(p.Format(), report, title, now)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	pushErr := p.Push(ctx, title, body)

	entry := &storage.PushLog{
		RunID:      report.RunID,
		Channel:    p.Channel(),
		Title:      title,
		City:       city,
		Status:     storage.PushStatusOK,
		ItemCounts: counts(report),
	}
	if pushErr != nil {
		entry.Status = storage.PushStatusFailed
		entry.Error = pushErr.Error()
	}
	if store != nil {
		if err := store.SavePushLog(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("save push log failed")
		}
	}

	if pushErr != nil {
		return fmt.Errorf("push via %s: %w", p.Channel(), pushErr)
	}
	log.Info().Str("channel", p.Channel()).Int("items", report.TotalItems()).Msg("digest pushed")
	return nil
}

func counts(report digest.AggregateReport) map[string]any {
	out := make(map[string]any, len(report.Sections)+1)
	for k, v := range report.Counts() {
		out[k] = v
	}
	if report.Weather != nil {
		out[string(collector.CategoryWeather)] = report.Weather.Available()
	}
	return out
}
