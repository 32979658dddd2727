package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

type countingRunner struct {
	calls    atomic.Int32
	lastCity atomic.Value
}

func (r *countingRunner) Run(_ context.Context, city string) digest.AggregateReport {
	r.calls.Add(1)
	r.lastCity.Store(city)
	w := collector.UnavailableWeather(city)
	return digest.Assemble(&w, collector.CategoryResult{
		Category: collector.CategoryTrending,
		Source:   "zhihu_hot",
		Items:    []collector.NewsItem{{Title: "热点一", URL: "https://example.com/1", Hot: collector.NormalizeHotness("3.5万")}},
	})
}

func newTestRouter(t *testing.T, middleware ...gin.HandlerFunc) (*gin.Engine, *countingRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runner := &countingRunner{}
	srv := NewServer(runner, storage.NewMemoryStore(time.Minute, zerolog.Nop()), "北京", zerolog.Nop())
	srv.now = func() time.Time { return time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.Use(middleware...)
	srv.RegisterRoutes(r)
	return r, runner
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDigest_CachedPerCity(t *testing.T) {
	r, runner := newTestRouter(t)

	w := get(r, "/api/v1/digest")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code string                 `json:"code"`
		Data digest.AggregateReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Code)
	require.NotNil(t, resp.Data.Weather)
	assert.Equal(t, "北京", resp.Data.Weather.City)
	assert.Equal(t, "3.5万", resp.Data.Category(collector.CategoryTrending).Items[0].Hot.Display())

	get(r, "/api/v1/digest")
	assert.Equal(t, int32(1), runner.calls.Load(), "second request must hit cache")

	get(r, "/api/v1/digest?city=上海")
	assert.Equal(t, int32(2), runner.calls.Load())
	assert.Equal(t, "上海", runner.lastCity.Load())
}

// 首个请求方断开后采集仍完成并写入缓存
type disconnectingRunner struct {
	cancel context.CancelFunc
	runErr error
}

func (r *disconnectingRunner) Run(ctx context.Context, city string) digest.AggregateReport {
	r.cancel()
	r.runErr = ctx.Err()
	w := collector.UnavailableWeather(city)
	return digest.Assemble(&w)
}

func TestDigest_DetachedFromCallerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	runner := &disconnectingRunner{cancel: cancel}
	store := storage.NewMemoryStore(time.Minute, zerolog.Nop())
	srv := NewServer(runner, store, "北京", zerolog.Nop())

	bs, err := srv.report(ctx, "北京")
	require.NoError(t, err)
	require.NotEmpty(t, bs)
	assert.Error(t, ctx.Err())
	assert.NoError(t, runner.runErr)

	cached, ok := store.GetCachedReport(context.Background(), "北京")
	require.True(t, ok)
	assert.Equal(t, bs, cached)
}

func TestDigestHTML(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/v1/digest/html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<h1>晚间新闻</h1>")
	assert.Contains(t, w.Body.String(), "热点一")
	assert.Contains(t, w.Body.String(), "数据获取失败")
}

func TestClothing(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/v1/clothing?temp=30")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), collector.ClothingFor(30))

	w = get(r, "/api/v1/clothing?temp=N/A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), collector.ClothingFallback)

	w = get(r, "/api/v1/clothing")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPushes_EmptyWithoutDatabase(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/api/v1/pushes?limit=abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":"ok","message":"success","data":[]}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	r, _ := newTestRouter(t)
	get(r, "/api/v1/digest")

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
