package collector

import "github.com/rs/zerolog"

const zhihuHotURL = "https://www.zhihu.com/api/v3/feed/topstory/hot-lists/total"

// ZhihuHotExtractor 知乎热榜：data[].target.{title,id}，热度在 detail_text（如 “1234 万热度”）
func ZhihuHotExtractor(p *Payload) []NewsItem {
	list := asSlice(lookup(p.Doc, "data"))
	items := make([]NewsItem, 0, len(list))
	for _, it := range list {
		target := lookup(it, "target")
		items = append(items, NewsItem{
			Title: strAt(target, "", "title"),
			URL:   "https://www.zhihu.com/question/" + strAt(target, "", "id"),
			Hot:   NormalizeHotness(lookup(it, "detail_text")),
		})
	}
	return items
}

// NewTrendingChain 热点新闻：知乎热榜 → 百度热搜接口 → 百度热搜页面
func NewTrendingChain(t *Transport, log zerolog.Logger) *Chain {
	return NewChain("trending", CategoryTrending, log,
		Step{Source: t.Source(Endpoint{Name: "zhihu_hot", URL: zhihuHotURL}), Extract: ZhihuHotExtractor},
		Step{Source: t.Source(Endpoint{Name: "baidu_hot_api", URL: baiduHotAPIURL}), Extract: BaiduHotExtractor},
		Step{Source: NewBaiduPageSource(baiduBoardURL, t.userAgent, t.timeout), Extract: BaiduHotExtractor},
	)
}
