package processor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SummaryMaxRunes 订阅源摘要在采集阶段保留的最大字符数
const SummaryMaxRunes = 100

const ellipsis = "..."

// StripTags 去掉 HTML 标签与多余空白，只保留正文
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

// TruncateRunes 按 rune 截断，超长时追加省略号，避免把中文截成乱码
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return strings.TrimSpace(string(rs[:limit])) + ellipsis
}

// Summary 订阅源摘要：去标签 + 截断
func Summary(raw string) string {
	return TruncateRunes(StripTags(raw), SummaryMaxRunes)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
