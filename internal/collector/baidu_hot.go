package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/TrendingDigest/internal/processor"
	"github.com/gocolly/colly/v2"
)

const (
	baiduHotAPIURL = "https://top.baidu.com/api/board?platform=wise&tab=realtime"
	baiduBoardURL  = "https://top.baidu.com/board?tab=realtime"
)

// BaiduHotExtractor 百度热搜：data.cards[].content[].{word,url,hotScore,desc}
func BaiduHotExtractor(p *Payload) []NewsItem {
	var items []NewsItem
	for _, card := range asSlice(lookup(p.Doc, "data", "cards")) {
		for _, n := range asSlice(lookup(card, "content")) {
			items = append(items, NewsItem{
				Title:   strAt(n, "", "word"),
				URL:     strAt(n, "", "url"),
				Hot:     NormalizeHotness(lookup(n, "hotScore")),
				Summary: processor.Summary(strAt(n, "", "desc")),
			})
		}
	}
	return items
}

// BaiduPageSource 抓取百度实时热搜页面，输出与接口相同结构的松散文档，复用 BaiduHotExtractor
type BaiduPageSource struct {
	url       string
	userAgent string
	timeout   time.Duration
}

// NewBaiduPageSource 创建页面镜像来源
func NewBaiduPageSource(url, userAgent string, timeout time.Duration) *BaiduPageSource {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &BaiduPageSource{url: url, userAgent: userAgent, timeout: timeout}
}

func (b *BaiduPageSource) Name() string { return "baidu_hot_page" }

func (b *BaiduPageSource) Fetch(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failed(b.Name(), 0, fmt.Errorf("panic: %v", r))
		}
		observeFetch(b.Name(), res, time.Since(start))
	}()

	// colly 不接收 context，只能在发请求前检查
	if err := ctx.Err(); err != nil {
		return failed(b.Name(), 0, err)
	}

	c := colly.NewCollector(colly.UserAgent(b.userAgent))
	c.SetRequestTimeout(b.timeout)

	var (
		rows   []any
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	// 页面结构可能调整，此处基于当前的 DOM 结构做“尽力而为”的解析
	c.OnHTML("div.category-wrap_iQLoo", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText("div.c-single-text-ellipsis"))
		if title == "" {
			return
		}

		link := b.url
		if href := strings.TrimSpace(e.ChildAttr("a", "href")); href != "" {
			link = e.Request.AbsoluteURL(href)
		}

		desc := ""
		for _, sel := range []string{"div[class*='desc']", "div[class*='content']", "div[class*='abstract']"} {
			if desc = strings.TrimSpace(e.ChildText(sel)); desc != "" {
				break
			}
		}

		rows = append(rows, map[string]any{
			"word":     title,
			"url":      link,
			"hotScore": strings.TrimSpace(e.ChildText("div.hot-index_1Bl1a")),
			"desc":     cleanBaiduDesc(desc),
		})
	})

	if err := c.Visit(b.url); err != nil {
		return failed(b.Name(), status, err)
	}

	doc := map[string]any{
		"data": map[string]any{
			"cards": []any{map[string]any{"content": rows}},
		},
	}
	return Result{Payload: &Payload{Doc: doc}}
}

// cleanBaiduDesc 去掉简介中的“查看更多”等链接文案，只保留正文
func cleanBaiduDesc(s string) string {
	s = strings.TrimSpace(s)
	for _, cut := range []string{"[查看更多>]", "[查看更多&gt;]", "查看更多"} {
		if idx := strings.Index(s, cut); idx != -1 {
			s = strings.TrimSpace(s[:idx])
		}
	}
	return s
}
