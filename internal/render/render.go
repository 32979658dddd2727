package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/processor"
)

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html"))

const (
	// SummaryRunes 摘要展示长度
	SummaryRunes = 50
	Footer       = "每日 08:00 / 20:00 自动推送"
)

// sectionStyle 各分类的标题、展示条数与摘要条数
type sectionStyle struct {
	heading      string
	headerStyle  template.CSS
	limit        int
	ranked       bool
	card         string
	summaryUntil int
}

var sectionStyles = map[collector.Category]sectionStyle{
	collector.CategoryTrending: {heading: "🔥 热点新闻", limit: 10, ranked: true},
	collector.CategoryToutiao: {
		heading:     "📱 今日头条",
		headerStyle: "background: linear-gradient(90deg, #ff6b35, #f7931e); color: #fff;",
		limit:       10,
		ranked:      true,
	},
	collector.CategoryDouyin: {
		heading:     "🎵 抖音热榜",
		headerStyle: "background: linear-gradient(90deg, #000, #333); color: #fff;",
		limit:       10,
		ranked:      true,
	},
	collector.CategoryTech: {heading: "💻 科技资讯", limit: 10, card: "tech-card", summaryUntil: 5},
	collector.CategoryAI:   {heading: "🤖 AI 前沿", limit: 8, card: "ai-card", summaryUntil: 3},
}

var weekdays = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Weekday 中文星期
func Weekday(t time.Time) string { return weekdays[t.Weekday()] }

// Title 12 点前为早间新闻，之后为晚间新闻
func Title(now time.Time) string {
	if now.Hour() < 12 {
		return "早间新闻"
	}
	return "晚间新闻"
}

type row struct {
	Index   int
	Number  string
	Top     bool
	Title   string
	URL     string
	Hot     string
	Summary string
}

type section struct {
	Heading     string
	HeaderStyle template.CSS
	Ranked      bool
	Card        string
	Rows        []row
}

type page struct {
	Title    string
	Date     string
	Weekday  string
	Time     string
	Weather  *collector.WeatherReport
	Clothing string
	Sections []section
	Footer   string
}

func buildSections(report digest.AggregateReport) []section {
	var out []section
	for _, c := range digest.Order {
		style, ok := sectionStyles[c]
		if !ok {
			continue
		}
		items := report.Category(c).Items
		if len(items) == 0 {
			continue
		}
		if len(items) > style.limit {
			items = items[:style.limit]
		}

		s := section{Heading: style.heading, HeaderStyle: style.headerStyle, Ranked: style.ranked, Card: style.card}
		for i, it := range items {
			idx := i + 1
			r := row{
				Index:  idx,
				Number: fmt.Sprintf("%02d", idx),
				Top:    idx <= 3,
				Title:  it.Title,
				URL:    it.URL,
				Hot:    it.Hot.Display(),
			}
			if idx <= style.summaryUntil {
				r.Summary = processor.TruncateRunes(strings.TrimSpace(it.Summary), SummaryRunes)
			}
			s.Rows = append(s.Rows, r)
		}
		out = append(out, s)
	}
	return out
}

// HTML 渲染推送用的 HTML 文档；空分类不输出
func HTML(report digest.AggregateReport, title string, now time.Time) (string, error) {
	p := page{
		Title:    title,
		Date:     now.Format("2006年01月02日"),
		Weekday:  Weekday(now),
		Time:     now.Format("15:04"),
		Weather:  report.Weather,
		Sections: buildSections(report),
		Footer:   Footer,
	}
	if report.Weather != nil {
		p.Clothing = collector.SuggestClothing(report.Weather.Today.Temp)
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// Text 纯文本版本，用于 Telegram 等不支持 HTML 的渠道
func Text(report digest.AggregateReport, title string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s %s %s\n", title, now.Format("2006年01月02日"), Weekday(now), now.Format("15:04"))

	if w := report.Weather; w != nil {
		fmt.Fprintf(&b, "\n🌤️ %s 天气\n", w.City)
		fmt.Fprintf(&b, "今天 %s° %s 湿度 %s%%\n", w.Today.Temp, w.Today.WeatherDesc, w.Today.Humidity)
		fmt.Fprintf(&b, "明天 %s~%s° %s\n", w.Tomorrow.TempMin, w.Tomorrow.TempMax, w.Tomorrow.WeatherDesc)
		fmt.Fprintf(&b, "穿衣建议：%s\n", collector.SuggestClothing(w.Today.Temp))
	}

	for _, s := range buildSections(report) {
		fmt.Fprintf(&b, "\n%s\n", s.Heading)
		for _, r := range s.Rows {
			if s.Ranked {
				fmt.Fprintf(&b, "%d. %s", r.Index, r.Title)
				if r.Hot != "" {
					fmt.Fprintf(&b, " 🔥%s", r.Hot)
				}
			} else {
				fmt.Fprintf(&b, "[%s] %s", r.Number, r.Title)
			}
			b.WriteString("\n")
			if r.Summary != "" {
				fmt.Fprintf(&b, "   %s\n", r.Summary)
			}
			if r.URL != "" {
				fmt.Fprintf(&b, "   %s\n", r.URL)
			}
		}
	}

	fmt.Fprintf(&b, "\n%s\n", Footer)
	return b.String()
}
