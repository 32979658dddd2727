package collector

import "context"

// Category 内容分类标识
type Category string

const (
	CategoryWeather  Category = "weather"
	CategoryTrending Category = "trending"
	CategoryToutiao  Category = "toutiao"
	CategoryDouyin   Category = "douyin"
	CategoryTech     Category = "tech"
	CategoryAI       Category = "ai"
)

// NewsItem 统一采集后的基础结构；Title/URL 缺失时为空串，渲染层无需判空
type NewsItem struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Hot     HotScore `json:"hot"`
	Summary string   `json:"summary,omitempty"`
}

// CategoryResult 某个分类的一次采集结果，Items 长度不超过请求的 limit，顺序即来源排名
type CategoryResult struct {
	Category Category   `json:"category"`
	Source   string     `json:"source,omitempty"`
	Items    []NewsItem `json:"items"`
}

// Len 返回条目数
func (r CategoryResult) Len() int { return len(r.Items) }

// Empty 构造某分类的空结果（全部来源失败时的合法终态）
func Empty(c Category) CategoryResult {
	return CategoryResult{Category: c, Items: []NewsItem{}}
}

// Fetcher 抽象每一个分类的采集链路
type Fetcher interface {
	Name() string
	Category() Category
	Fetch(ctx context.Context, limit int) CategoryResult
}

func truncate(items []NewsItem, limit int) []NewsItem {
	if limit <= 0 {
		return []NewsItem{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
