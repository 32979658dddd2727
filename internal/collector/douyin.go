package collector

import (
	"net/url"

	"github.com/rs/zerolog"
)

const (
	douyinBillboardURL = "https://www.iesdouyin.com/web/api/v2/hotsearch/billboard/word/"
	douyinFeedURL      = "https://rsshub.app/douyin/hot"
)

// DouyinHotExtractor 抖音热榜：word_list[].{word,hot_value}，链接拼成站内搜索
func DouyinHotExtractor(p *Payload) []NewsItem {
	list := asSlice(lookup(p.Doc, "word_list"))
	items := make([]NewsItem, 0, len(list))
	for _, it := range list {
		word := strAt(it, "", "word")
		items = append(items, NewsItem{
			Title: word,
			URL:   "https://www.douyin.com/search/" + url.PathEscape(word),
			Hot:   NormalizeHotness(lookup(it, "hot_value")),
		})
	}
	return items
}

// NewDouyinChain 抖音热榜：榜单接口 → RSSHub 镜像
func NewDouyinChain(t *Transport, log zerolog.Logger) *Chain {
	return NewChain("douyin", CategoryDouyin, log,
		Step{Source: t.Source(Endpoint{Name: "douyin_billboard", URL: douyinBillboardURL}), Extract: DouyinHotExtractor},
		Step{Source: t.Source(Endpoint{Name: "douyin_rsshub", URL: douyinFeedURL, Kind: PayloadFeed}), Extract: FeedTitleExtractor},
	)
}
