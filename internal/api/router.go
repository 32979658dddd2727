package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/LJTian/TrendingDigest/internal/collector"
	"github.com/LJTian/TrendingDigest/internal/digest"
	"github.com/LJTian/TrendingDigest/internal/render"
	"github.com/LJTian/TrendingDigest/internal/storage"
)

// Runner 执行一次完整采集
type Runner interface {
	Run(ctx context.Context, city string) digest.AggregateReport
}

type Server struct {
	runner Runner
	store  *storage.Store
	city   string
	log    zerolog.Logger
	now    func() time.Time
	group  singleflight.Group
}

func NewServer(runner Runner, store *storage.Store, city string, log zerolog.Logger) *Server {
	return &Server{runner: runner, store: store, city: city, log: log, now: time.Now}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/digest", s.getDigest)
		v1.GET("/digest/html", s.getDigestHTML)
		v1.GET("/clothing", s.getClothing)
		v1.GET("/pushes", s.listPushes)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) cityOf(c *gin.Context) string {
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		return city
	}
	return s.city
}

// report 先读缓存；未命中时同一城市的并发请求只触发一次采集
func (s *Server) report(ctx context.Context, city string) ([]byte, error) {
	if bs, ok := s.store.GetCachedReport(ctx, city); ok {
		return bs, nil
	}

	v, err, _ := s.group.Do(city, func() (interface{}, error) {
		// 采集和写缓存都不跟随单个请求取消
		runCtx := context.WithoutCancel(ctx)
		report := s.runner.Run(runCtx, city)
		bs, err := json.Marshal(report)
		if err != nil {
			return nil, err
		}
		s.store.SaveCachedReport(runCtx, city, bs)
		return bs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Server) getDigest(c *gin.Context) {
	bs, err := s.report(c.Request.Context(), s.cityOf(c))
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    json.RawMessage(bs),
	})
}

func (s *Server) getDigestHTML(c *gin.Context) {
	bs, err := s.report(c.Request.Context(), s.cityOf(c))
	if err != nil {
		s.internalError(c, err)
		return
	}

	var report digest.AggregateReport
	if err := json.Unmarshal(bs, &report); err != nil {
		s.internalError(c, err)
		return
	}

	now := s.now()
	title := c.DefaultQuery("title", render.Title(now))
	html, err := render.HTML(report, title, now)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) getClothing(c *gin.Context) {
	temp := c.Query("temp")
	if temp == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "temp is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data": gin.H{
			"temp":       temp,
			"suggestion": collector.SuggestClothing(temp),
		},
	})
}

func (s *Server) listPushes(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.store.ListPushLogs(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
