package collector

import (
	"context"
	"strings"

	"github.com/LJTian/TrendingDigest/internal/processor"
	"github.com/rs/zerolog"
)

var (
	// DefaultTechFeeds 科技资讯订阅源：36氪、少数派、爱范儿
	DefaultTechFeeds = []string{
		"https://www.36kr.com/feed",
		"https://sspai.com/feed",
		"https://www.ifanr.com/feed",
	}
	// DefaultAIFeeds AI 订阅源：机器之心、36氪 AI 搜索
	DefaultAIFeeds = []string{
		"https://rsshub.app/jiqizhixin/ai",
		"https://rsshub.app/36kr/search/AI",
	}
)

// FeedExtractor 订阅源条目 → 带摘要的统一条目
func FeedExtractor(p *Payload) []NewsItem {
	return extractFeed(p, true)
}

// FeedTitleExtractor 热榜镜像源只取标题与链接，没有热度
func FeedTitleExtractor(p *Payload) []NewsItem {
	return extractFeed(p, false)
}

func extractFeed(p *Payload, withSummary bool) []NewsItem {
	if p == nil || p.Feed == nil {
		return nil
	}
	items := make([]NewsItem, 0, len(p.Feed.Items))
	for _, e := range p.Feed.Items {
		if e == nil {
			continue
		}
		it := NewsItem{
			Title: strings.TrimSpace(e.Title),
			URL:   strings.TrimSpace(e.Link),
		}
		if withSummary {
			raw := e.Description
			if strings.TrimSpace(raw) == "" {
				raw = e.Content
			}
			it.Summary = processor.Summary(raw)
		}
		items = append(items, it)
	}
	return items
}

var _ Fetcher = (*FeedSet)(nil)

// FeedSet 一组并列的订阅源：按顺序各取 ceil(limit/n)+1 条拼接，总数截断到 limit。
// 单个源失败只跳过该源，不影响其它源。
type FeedSet struct {
	name     string
	category Category
	sources  []Source
	log      zerolog.Logger
}

// NewFeedSet 创建订阅源集合
func NewFeedSet(name string, category Category, log zerolog.Logger, sources ...Source) *FeedSet {
	return &FeedSet{
		name:     name,
		category: category,
		sources:  sources,
		log:      log.With().Str("category", string(category)).Logger(),
	}
}

// NewFeedSetFromURLs 用共享 Transport 为每个 URL 构造订阅源
func NewFeedSetFromURLs(name string, category Category, log zerolog.Logger, t *Transport, urls []string) *FeedSet {
	sources := make([]Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, t.Source(Endpoint{Name: u, URL: u, Kind: PayloadFeed}))
	}
	return NewFeedSet(name, category, log, sources...)
}

func (f *FeedSet) Name() string       { return f.name }
func (f *FeedSet) Category() Category { return f.category }

// PerFeed 每个源最多贡献的条数
func PerFeed(limit, feeds int) int {
	if feeds <= 0 {
		return 0
	}
	return (limit+feeds-1)/feeds + 1
}

func (f *FeedSet) Fetch(ctx context.Context, limit int) CategoryResult {
	if limit <= 0 || len(f.sources) == 0 {
		return Empty(f.category)
	}

	per := PerFeed(limit, len(f.sources))
	items := make([]NewsItem, 0, limit)
	var used []string

	for _, src := range f.sources {
		if len(items) >= limit {
			break
		}
		res := src.Fetch(ctx)
		if !res.OK() {
			f.log.Warn().Str("source", src.Name()).Err(res.Failure).Msg("feed failed, skip")
			continue
		}

		got := truncate(safeExtract(f.log, src.Name(), FeedExtractor, res.Payload), per)
		if room := limit - len(items); len(got) > room {
			got = got[:room]
		}
		if len(got) > 0 {
			items = append(items, got...)
			used = append(used, src.Name())
		}
	}

	f.log.Info().Int("items", len(items)).Strs("feeds", used).Msg("feeds fetched")
	CategoryItems.WithLabelValues(string(f.category)).Set(float64(len(items)))
	return CategoryResult{Category: f.category, Source: strings.Join(used, ","), Items: items}
}
