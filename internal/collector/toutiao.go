package collector

import "github.com/rs/zerolog"

const (
	toutiaoHotURL = "https://www.toutiao.com/hot-event/hot-board/?origin=toutiao_pc"
	// rsshub 头条关键词“热点”
	toutiaoFeedURL = "https://rsshub.app/toutiao/keyword/%E7%83%AD%E7%82%B9"
)

// ToutiaoHotExtractor 今日头条热榜：data[].{Title,Url,HotValue}
func ToutiaoHotExtractor(p *Payload) []NewsItem {
	list := asSlice(lookup(p.Doc, "data"))
	items := make([]NewsItem, 0, len(list))
	for _, it := range list {
		items = append(items, NewsItem{
			Title: strAt(it, "", "Title"),
			URL:   strAt(it, "", "Url"),
			Hot:   NormalizeHotness(lookup(it, "HotValue")),
		})
	}
	return items
}

// NewToutiaoChain 今日头条：热榜接口 → RSSHub 镜像
func NewToutiaoChain(t *Transport, log zerolog.Logger) *Chain {
	return NewChain("toutiao", CategoryToutiao, log,
		Step{Source: t.Source(Endpoint{Name: "toutiao_hot", URL: toutiaoHotURL}), Extract: ToutiaoHotExtractor},
		Step{Source: t.Source(Endpoint{Name: "toutiao_rsshub", URL: toutiaoFeedURL, Kind: PayloadFeed}), Extract: FeedTitleExtractor},
	)
}
