package collector

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const aiKeywordFilterSource = "tech_keyword_filter"

// DefaultAIKeywords 本地兜底时识别 AI 相关标题的关键词
var DefaultAIKeywords = []string{"AI", "人工智能", "机器学习", "ChatGPT", "GPT", "大模型", "LLM", "深度学习"}

// KeywordPolicy 标题匹配规则：子串匹配，默认区分大小写
type KeywordPolicy struct {
	Keywords   []string
	IgnoreCase bool
}

// DefaultKeywordPolicy 默认关键词，区分大小写
func DefaultKeywordPolicy() KeywordPolicy {
	return KeywordPolicy{Keywords: DefaultAIKeywords}
}

// Match 标题是否包含任一关键词
func (p KeywordPolicy) Match(title string) bool {
	if p.IgnoreCase {
		title = strings.ToLower(title)
	}
	return lo.ContainsBy(p.Keywords, func(k string) bool {
		if k == "" {
			return false
		}
		if p.IgnoreCase {
			k = strings.ToLower(k)
		}
		return strings.Contains(title, k)
	})
}

// Filter 保留命中的条目，最多 limit 条，不修改输入
func (p KeywordPolicy) Filter(items []NewsItem, limit int) []NewsItem {
	if limit <= 0 {
		return []NewsItem{}
	}
	hits := lo.Filter(items, func(it NewsItem, _ int) bool { return p.Match(it.Title) })
	return truncate(hits, limit)
}

// AINews AI 资讯：先走 AI 订阅源，全部无数据时从本次已抓取的科技资讯中按关键词筛选
type AINews struct {
	feeds  *FeedSet
	policy KeywordPolicy
	log    zerolog.Logger
}

// NewAINews 创建 AI 资讯采集器；policy 关键词为空时使用默认关键词
func NewAINews(feeds *FeedSet, policy KeywordPolicy, log zerolog.Logger) *AINews {
	if len(policy.Keywords) == 0 {
		policy.Keywords = DefaultAIKeywords
	}
	return &AINews{
		feeds:  feeds,
		policy: policy,
		log:    log.With().Str("category", string(CategoryAI)).Logger(),
	}
}

func (a *AINews) Name() string       { return "ai" }
func (a *AINews) Category() Category { return CategoryAI }

// Fetch tech 为只读输入，兜底过程不访问网络、不会失败
func (a *AINews) Fetch(ctx context.Context, limit int, tech []NewsItem) CategoryResult {
	if limit <= 0 {
		return Empty(CategoryAI)
	}

	if a.feeds != nil {
		if res := a.feeds.Fetch(ctx, limit); res.Len() > 0 {
			return res
		}
	}

	items := a.policy.Filter(tech, limit)
	a.log.Info().Int("candidates", len(tech)).Int("items", len(items)).Msg("ai feeds empty, filter tech news by keyword")
	CategoryItems.WithLabelValues(string(CategoryAI)).Set(float64(len(items)))
	if len(items) == 0 {
		return Empty(CategoryAI)
	}
	return CategoryResult{Category: CategoryAI, Source: aiKeywordFilterSource, Items: items}
}
