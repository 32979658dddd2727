package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/config"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/notify"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

type fakePusher struct {
	format notify.Format
	err    error
	title  string
	body   string
	calls  int
}

func (f *fakePusher) Channel() string       { return "fake" }
func (f *fakePusher) Format() notify.Format { return f.format }

func (f *fakePusher) Push(_ context.Context, title, body string) error {
	f.calls++
	f.title, f.body = title, body
	return f.err
}

var now = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func TestDeliver_EmptyReportStillPushed(t *testing.T) {
	p := &fakePusher{format: notify.FormatHTML}
	w := collector.UnavailableWeather("北京")

	err := Deliver(context.Background(), p, storage.NewMemoryStore(0, zerolog.Nop()), digest.Assemble(&w), "北京", "早间新闻", now, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "早间新闻", p.title)
	assert.Contains(t, p.body, "<h1>早间新闻</h1>")
	assert.Contains(t, p.body, "数据获取失败")
}

func TestDeliver_TextChannel(t *testing.T) {
	p := &fakePusher{format: notify.FormatText}
	report := digest.Assemble(nil, collector.CategoryResult{
		Category: collector.CategoryTech,
		Items:    []collector.NewsItem{{Title: "科技一", URL: "https://example.com"}},
	})

	require.NoError(t, Deliver(context.Background(), p, nil, report, "北京", "早间新闻", now, zerolog.Nop()))
	assert.NotContains(t, p.body, "<html")
	assert.Contains(t, p.body, "[01] 科技一")
}

func TestDeliver_PushFailure(t *testing.T) {
	p := &fakePusher{format: notify.FormatHTML, err: notify.ErrRejected}

	err := Deliver(context.Background(), p, storage.NewMemoryStore(0, zerolog.Nop()), digest.Assemble(nil), "北京", "t", now, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, notify.ErrRejected))
}

func TestCounts(t *testing.T) {
	w := collector.UnavailableWeather("北京")
	report := digest.Assemble(&w, collector.CategoryResult{
		Category: collector.CategoryTrending,
		Items:    []collector.NewsItem{{Title: "a"}, {Title: "b"}},
	})

	c := counts(report)
	assert.Equal(t, 2, c["trending"])
	assert.Equal(t, 0, c["ai"])
	assert.Equal(t, false, c["weather"])
}

func TestNewRunner(t *testing.T) {
	cfg := &config.Config{
		HotLimit: 6, ToutiaoLimit: 6, DouyinLimit: 6, TechLimit: 5, AILimit: 3,
		SourceTimeout: time.Second,
		FetchParallel: true,
	}
	r := NewRunner(cfg, zerolog.Nop())

	require.Len(t, r.Categories, 4)
	assert.Equal(t, collector.CategoryTrending, r.Categories[0].Category())
	assert.Equal(t, collector.CategoryTech, r.Categories[3].Category())
	assert.Equal(t, 5, r.Limits.Tech)
	assert.True(t, r.Parallel)
	assert.NotNil(t, r.Weather)
	assert.NotNil(t, r.AI)
}

type stubCategory struct {
	category collector.Category
	items    []collector.NewsItem
	calls    int
}

func (s *stubCategory) Category() collector.Category { return s.category }

func (s *stubCategory) Fetch(_ context.Context, limit int) collector.CategoryResult {
	s.calls++
	items := s.items
	if len(items) > limit {
		items = items[:limit]
	}
	return collector.CategoryResult{Category: s.category, Source: "stub", Items: items}
}

type stubWeather struct{ calls int }

func (s *stubWeather) Fetch(_ context.Context, city string) collector.WeatherReport {
	s.calls++
	return collector.UnavailableWeather(city)
}

type stubAI struct{ gotTech []collector.NewsItem }

func (s *stubAI) Fetch(_ context.Context, _ int, tech []collector.NewsItem) collector.CategoryResult {
	s.gotTech = tech
	return collector.CategoryResult{Category: collector.CategoryAI, Items: tech}
}

func newStubRunner() (*digest.Runner, *stubCategory, *stubCategory, *stubWeather, *stubAI) {
	trending := &stubCategory{category: collector.CategoryTrending, items: []collector.NewsItem{{Title: "热点"}}}
	tech := &stubCategory{category: collector.CategoryTech, items: []collector.NewsItem{{Title: "LLM 发布"}, {Title: "芯片"}}}
	w := &stubWeather{}
	ai := &stubAI{}
	return &digest.Runner{
		Weather:    w,
		Categories: []digest.CategoryFetcher{trending, tech},
		AI:         ai,
		Log:        zerolog.Nop(),
	}, trending, tech, w, ai
}

func TestCollect_AllIncludesWeatherAndAI(t *testing.T) {
	r, _, _, w, ai := newStubRunner()

	res, err := Collect(context.Background(), r, "", "上海", 5)
	require.NoError(t, err)

	require.NotNil(t, res.Weather)
	assert.Equal(t, "上海", res.Weather.City)
	assert.Equal(t, 1, w.calls)

	require.Len(t, res.Sections, 3)
	assert.Equal(t, collector.CategoryTrending, res.Sections[0].Category)
	assert.Equal(t, collector.CategoryTech, res.Sections[1].Category)
	assert.Equal(t, collector.CategoryAI, res.Sections[2].Category)
	assert.Len(t, ai.gotTech, 2)
}

func TestCollect_AIOnlyFetchesTechAsInput(t *testing.T) {
	r, trending, tech, w, ai := newStubRunner()

	res, err := Collect(context.Background(), r, collector.CategoryAI, "北京", 1)
	require.NoError(t, err)

	assert.Nil(t, res.Weather)
	assert.Zero(t, w.calls)
	assert.Zero(t, trending.calls)
	assert.Equal(t, 1, tech.calls)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, collector.CategoryAI, res.Sections[0].Category)
	assert.Equal(t, []collector.NewsItem{{Title: "LLM 发布"}}, ai.gotTech)
}

func TestCollect_WeatherOnly(t *testing.T) {
	r, trending, tech, _, _ := newStubRunner()

	res, err := Collect(context.Background(), r, collector.CategoryWeather, "北京", 5)
	require.NoError(t, err)

	require.NotNil(t, res.Weather)
	assert.Empty(t, res.Sections)
	assert.Zero(t, trending.calls+tech.calls)
}

func TestCollect_UnknownCategory(t *testing.T) {
	r, _, _, _, _ := newStubRunner()

	_, err := Collect(context.Background(), r, "stocks", "北京", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}
