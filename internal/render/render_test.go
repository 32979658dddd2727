package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/digest"
)

func sampleReport() digest.AggregateReport {
	w := collector.WeatherReport{
		City:     "北京",
		Source:   "wttr",
		Today:    collector.TodayWeather{Temp: "25", WeatherDesc: "晴", Humidity: "40"},
		Tomorrow: collector.TomorrowWeather{TempMax: "28", TempMin: "18", WeatherDesc: "多云"},
	}

	var trending []collector.NewsItem
	for i := 0; i < 12; i++ {
		trending = append(trending, collector.NewsItem{
			Title: "热点" + string(rune('A'+i)),
			URL:   "https://example.com/hot",
			Hot:   collector.NormalizeHotness("3.5万"),
		})
	}

	tech := []collector.NewsItem{
		{Title: "科技一", URL: "https://example.com/t1", Summary: strings.Repeat("长", 80)},
		{Title: "<script>alert(1)</script>", URL: "https://example.com/t2", Summary: "短摘要"},
	}

	return digest.Assemble(&w,
		collector.CategoryResult{Category: collector.CategoryTrending, Items: trending},
		collector.CategoryResult{Category: collector.CategoryTech, Items: tech},
	)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "早间新闻", Title(time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local)))
	assert.Equal(t, "早间新闻", Title(time.Date(2026, 1, 1, 11, 59, 0, 0, time.Local)))
	assert.Equal(t, "晚间新闻", Title(time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)))
	assert.Equal(t, "晚间新闻", Title(time.Date(2026, 1, 1, 20, 0, 0, 0, time.Local)))
}

func TestWeekday(t *testing.T) {
	// 2026-01-05 是周一
	assert.Equal(t, "周一", Weekday(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "周日", Weekday(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)))
}

func TestHTML(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 3, 0, 0, time.UTC)
	out, err := HTML(sampleReport(), "早间新闻", now)
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>早间新闻</h1>")
	assert.Contains(t, out, "2026年01月05日 周一 08:03")
	assert.Contains(t, out, "🌤️ 北京 天气预报")
	assert.Contains(t, out, "18~28°")
	assert.Contains(t, out, collector.ClothingFor(25))

	assert.Contains(t, out, "🔥 热点新闻")
	assert.Contains(t, out, `<span class="rank top">#1</span>`)
	assert.Contains(t, out, `<span class="rank">#4</span>`)
	assert.Contains(t, out, "🔥 3.5万")
	assert.Contains(t, out, "#10")
	assert.NotContains(t, out, "#11", "ranked sections show at most 10 items")

	assert.Contains(t, out, "[01]")
	assert.Contains(t, out, strings.Repeat("长", SummaryRunes)+"...")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")

	// 空分类不输出
	assert.NotContains(t, out, "抖音热榜")
	assert.NotContains(t, out, "AI 前沿")
	assert.Contains(t, out, Footer)
}

func TestHTML_EmptyReport(t *testing.T) {
	out, err := HTML(digest.Assemble(nil), "晚间新闻", time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>晚间新闻</h1>")
	assert.NotContains(t, out, "weather-card\">")
	assert.NotContains(t, out, `class="section-header"`)
}

func TestHTML_SentinelWeather(t *testing.T) {
	w := collector.UnavailableWeather("北京")
	out, err := HTML(digest.Assemble(&w), "早间新闻", time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, out, "数据获取失败")
	assert.Contains(t, out, collector.ClothingFallback)
}

func TestText(t *testing.T) {
	out := Text(sampleReport(), "早间新闻", time.Date(2026, 1, 5, 8, 3, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(out, "早间新闻\n2026年01月05日 周一 08:03\n"))
	assert.Contains(t, out, "今天 25° 晴 湿度 40%")
	assert.Contains(t, out, "1. 热点A 🔥3.5万")
	assert.Contains(t, out, "[02] <script>alert(1)</script>")
	assert.Contains(t, out, "   短摘要")
	assert.NotContains(t, out, "11. ")
}
