package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

const (
	// DefaultUserAgent 多个来源会拒绝默认客户端，统一伪装为浏览器
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultSourceTimeout = 10 * time.Second
	maxResponseBytes     = 4 << 20 // 4MB
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrEmptyBody        = errors.New("empty body")
	ErrBodyTooLarge     = errors.New("body too large")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

// PayloadKind 来源返回的数据格式
type PayloadKind int

const (
	PayloadJSON PayloadKind = iota
	PayloadFeed
)

// Payload 一次成功调用得到的原始数据：松散的 JSON 文档或订阅源
type Payload struct {
	Doc  any
	Feed *gofeed.Feed
}

// SourceFailure 网络错误、非 200 状态或解析失败，只在来源边界内流转
type SourceFailure struct {
	Source string
	Status int
	Err    error
}

func (f *SourceFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", f.Source, f.Status, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

func (f *SourceFailure) Unwrap() error { return f.Err }

// Result 带成功/失败标记的调用结果，取代向上抛出的错误
type Result struct {
	Payload *Payload
	Failure *SourceFailure
}

// OK 调用成功且拿到了数据
func (r Result) OK() bool { return r.Failure == nil && r.Payload != nil }

func failed(source string, status int, err error) Result {
	return Result{Failure: &SourceFailure{Source: source, Status: status, Err: err}}
}

// Source 对一个外部端点执行一次有界调用
type Source interface {
	Name() string
	Fetch(ctx context.Context) Result
}

// Endpoint 单个外部端点的请求配置
type Endpoint struct {
	Name    string
	URL     string
	Method  string
	Headers map[string]string
	Kind    PayloadKind
}

// Transport 所有 HTTP 来源共享的客户端：固定超时、浏览器 UA、不重试
type Transport struct {
	client    *resty.Client
	timeout   time.Duration
	userAgent string

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewTransport 创建共享客户端；timeout/userAgent 为零值时取默认值
func NewTransport(timeout time.Duration, userAgent string) *Transport {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Transport{
		client:    resty.New().SetTimeout(timeout).SetRetryCount(0).SetResponseBodyLimit(maxResponseBytes),
		timeout:   timeout,
		userAgent: userAgent,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Source 基于端点配置构造一个带熔断的 HTTP 来源，同名端点共享熔断状态
func (t *Transport) Source(ep Endpoint) *HTTPSource {
	return &HTTPSource{
		endpoint:  ep,
		client:    t.client,
		userAgent: t.userAgent,
		breaker:   t.breaker(ep.Name),
	}
}

func (t *Transport) breaker(name string) *gobreaker.CircuitBreaker {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cb, ok := t.breakers[name]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
	})
	t.breakers[name] = cb
	return cb
}

// HTTPSource 通过 HTTP 拉取 JSON 文档或订阅源
type HTTPSource struct {
	endpoint  Endpoint
	client    *resty.Client
	userAgent string
	breaker   *gobreaker.CircuitBreaker
}

func (s *HTTPSource) Name() string { return s.endpoint.Name }

// Fetch 执行一次调用；任何错误都转换为 SourceFailure，不会越过该边界
func (s *HTTPSource) Fetch(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failed(s.endpoint.Name, 0, fmt.Errorf("panic: %v", r))
		}
		observeFetch(s.endpoint.Name, res, time.Since(start))
	}()

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.do(ctx)
	})
	if err != nil {
		var sf *SourceFailure
		if errors.As(err, &sf) {
			return Result{Failure: sf}
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return failed(s.endpoint.Name, 0, fmt.Errorf("%w: %v", ErrCircuitOpen, err))
		}
		return failed(s.endpoint.Name, 0, err)
	}
	return Result{Payload: out.(*Payload)}
}

func (s *HTTPSource) do(ctx context.Context) (*Payload, error) {
	name := s.endpoint.Name
	method := s.endpoint.Method
	if method == "" {
		method = http.MethodGet
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", s.userAgent).
		SetHeaders(s.endpoint.Headers)

	resp, err := req.Execute(method, s.endpoint.URL)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		return nil, &SourceFailure{Source: name, Status: status, Err: ErrBodyTooLarge}
	}
	if err != nil {
		return nil, &SourceFailure{Source: name, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &SourceFailure{Source: name, Status: resp.StatusCode(), Err: ErrUnexpectedStatus}
	}

	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &SourceFailure{Source: name, Status: resp.StatusCode(), Err: ErrEmptyBody}
	}

	switch s.endpoint.Kind {
	case PayloadFeed:
		feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
		if err != nil {
			return nil, &SourceFailure{Source: name, Status: resp.StatusCode(), Err: fmt.Errorf("parse feed: %w", err)}
		}
		return &Payload{Feed: feed}, nil
	default:
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, &SourceFailure{Source: name, Status: resp.StatusCode(), Err: fmt.Errorf("decode json: %w", err)}
		}
		return &Payload{Doc: doc}, nil
	}
}

func decodeDocument(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
