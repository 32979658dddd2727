package digest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LJTian/TrendingDigest/internal/collector"
)

// Order 报告中各分类的固定顺序
var Order = []collector.Category{
	collector.CategoryTrending,
	collector.CategoryToutiao,
	collector.CategoryDouyin,
	collector.CategoryTech,
	collector.CategoryAI,
}

// AggregateReport 一次运行的完整结果，交给渲染层
type AggregateReport struct {
	RunID       string                     `json:"runId,omitempty"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Weather     *collector.WeatherReport   `json:"weather,omitempty"`
	Sections    []collector.CategoryResult `json:"sections"`
}

// Category 按分类取结果，不存在时返回空结果
func (r AggregateReport) Category(c collector.Category) collector.CategoryResult {
	for _, s := range r.Sections {
		if s.Category == c {
			return s
		}
	}
	return collector.Empty(c)
}

// TotalItems 所有分类的条目总数
func (r AggregateReport) TotalItems() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Len()
	}
	return n
}

// Counts 各分类条目数，用于推送记录
func (r AggregateReport) Counts() map[string]int {
	out := make(map[string]int, len(r.Sections))
	for _, s := range r.Sections {
		out[string(s.Category)] = s.Len()
	}
	return out
}

// Assemble 按固定顺序组装报告；缺失的分类补空结果，同一分类出现多次时取第一个。纯结构操作，不会失败。
func Assemble(weather *collector.WeatherReport, results ...collector.CategoryResult) AggregateReport {
	byCat := make(map[collector.Category]collector.CategoryResult, len(results))
	for _, r := range results {
		if _, ok := byCat[r.Category]; ok {
			continue
		}
		if r.Items == nil {
			r.Items = []collector.NewsItem{}
		}
		byCat[r.Category] = r
	}

	sections := make([]collector.CategoryResult, 0, len(Order))
	for _, c := range Order {
		if r, ok := byCat[c]; ok {
			sections = append(sections, r)
			continue
		}
		sections = append(sections, collector.Empty(c))
	}
	return AggregateReport{Weather: weather, Sections: sections}
}

// CategoryFetcher 普通分类的采集链
type CategoryFetcher interface {
	Category() collector.Category
	Fetch(ctx context.Context, limit int) collector.CategoryResult
}

// WeatherFetcher 天气采集，永远返回一份报告
type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) collector.WeatherReport
}

// AIFetcher AI 资讯采集，依赖本次的科技资讯结果
type AIFetcher interface {
	Fetch(ctx context.Context, limit int, tech []collector.NewsItem) collector.CategoryResult
}

// Limits 各分类请求的条数
type Limits struct {
	Trending int
	Toutiao  int
	Douyin   int
	Tech     int
	AI       int
}

// DefaultLimits 默认条数
var DefaultLimits = Limits{Trending: 6, Toutiao: 6, Douyin: 6, Tech: 5, AI: 3}

func (l Limits) For(c collector.Category) int {
	switch c {
	case collector.CategoryTrending:
		return l.Trending
	case collector.CategoryToutiao:
		return l.Toutiao
	case collector.CategoryDouyin:
		return l.Douyin
	case collector.CategoryTech:
		return l.Tech
	case collector.CategoryAI:
		return l.AI
	default:
		return 0
	}
}

// Runner 执行一次完整采集：天气 → 各分类 → AI → 组装
type Runner struct {
	Weather    WeatherFetcher
	Categories []CategoryFetcher
	AI         AIFetcher
	Limits     Limits
	// Parallel 为 true 时各分类并发采集，AI 在科技资讯完成后执行
	Parallel bool
	Log      zerolog.Logger
	Now      func() time.Time
}

// Run 任何来源失败都不会中断运行，最终总能得到一份报告
func (r *Runner) Run(ctx context.Context, city string) AggregateReport {
	runID := uuid.NewString()
	log := r.Log.With().Str("run_id", runID).Logger()
	start := time.Now()
	log.Info().Str("city", city).Bool("parallel", r.Parallel).Msg("digest run start")

	var (
		weather *collector.WeatherReport
		results []collector.CategoryResult
	)
	if r.Parallel {
		weather, results = r.runParallel(ctx, city)
	} else {
		weather, results = r.runSequential(ctx, city)
	}

	report := Assemble(weather, results...)
	report.RunID = runID
	report.GeneratedAt = r.now()

	log.Info().
		Int("items", report.TotalItems()).
		Dur("elapsed", time.Since(start)).
		Msg("digest run done")
	return report
}

func (r *Runner) runSequential(ctx context.Context, city string) (*collector.WeatherReport, []collector.CategoryResult) {
	var weather *collector.WeatherReport
	if r.Weather != nil {
		w := r.Weather.Fetch(ctx, city)
		weather = &w
	}

	results := make([]collector.CategoryResult, 0, len(r.Categories)+1)
	for _, f := range r.Categories {
		results = append(results, f.Fetch(ctx, r.Limits.For(f.Category())))
	}

	if r.AI != nil {
		results = append(results, r.AI.Fetch(ctx, r.Limits.AI, techItems(results)))
	}
	return weather, results
}

func (r *Runner) runParallel(ctx context.Context, city string) (*collector.WeatherReport, []collector.CategoryResult) {
	var (
		weather *collector.WeatherReport
		results = make([]collector.CategoryResult, len(r.Categories))
		aiRes   collector.CategoryResult
		hasAI   bool
	)

	techDone := make(chan struct{})
	techIdx := -1
	for i, f := range r.Categories {
		if f.Category() == collector.CategoryTech {
			techIdx = i
			break
		}
	}
	if techIdx < 0 {
		close(techDone)
	}

	// 各任务只写自己的槽位，Wait 之后再读
	var g errgroup.Group
	if r.Weather != nil {
		g.Go(func() error {
			w := r.Weather.Fetch(ctx, city)
			weather = &w
			return nil
		})
	}
	for i, f := range r.Categories {
		g.Go(func() error {
			results[i] = f.Fetch(ctx, r.Limits.For(f.Category()))
			if i == techIdx {
				close(techDone)
			}
			return nil
		})
	}
	if r.AI != nil {
		hasAI = true
		g.Go(func() error {
			<-techDone
			var tech []collector.NewsItem
			if techIdx >= 0 {
				tech = results[techIdx].Items
			}
			aiRes = r.AI.Fetch(ctx, r.Limits.AI, tech)
			return nil
		})
	}
	_ = g.Wait()

	if hasAI {
		results = append(results, aiRes)
	}
	return weather, results
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func techItems(results []collector.CategoryResult) []collector.NewsItem {
	for _, res := range results {
		if res.Category == collector.CategoryTech {
			return res.Items
		}
	}
	return nil
}
