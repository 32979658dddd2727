package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推送渠道
const (
	ChannelServerChan = "serverchan"
	ChannelPushPlus   = "pushplus"
	ChannelTelegram   = "telegram"
)

var (
	ErrUnsupportedChannel = errors.New("unsupported push channel")
	// ErrRejected 渠道返回了非成功的业务码
	ErrRejected = errors.New("push rejected")
)

// Pushes 推送次数
var Pushes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trendingdigest_pushes_total",
	Help: "The total number of digest deliveries by outcome",
}, []string{"channel", "status"})

// Format 渠道接收的正文格式
type Format int

const (
	FormatHTML Format = iota
	FormatText
)

// Pusher 把渲染好的摘要投递到某个渠道
type Pusher interface {
	Channel() string
	Format() Format
	Push(ctx context.Context, title, body string) error
}

type options struct {
	baseURL string
	timeout time.Duration
}

// Option 渠道可选参数
type Option func(*options)

// WithBaseURL 覆盖渠道的接口地址
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout 单次推送超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New 按类型创建推送渠道；类型大小写不敏感
func New(kind, key string, chatID int64, opts ...Option) (Pusher, error) {
	o := options{timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ChannelServerChan:
		return newServerChan(key, o), nil
	case ChannelPushPlus:
		return newPushPlus(key, o), nil
	case ChannelTelegram:
		return newTelegram(key, chatID, o), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, kind)
	}
}

func newClient(o options) *resty.Client {
	return resty.New().SetTimeout(o.timeout).SetRetryCount(0)
}

func record(channel string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	Pushes.WithLabelValues(channel, status).Inc()
}

// apiReply Server酱用 message，PushPlus 用 msg
type apiReply struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (r apiReply) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Msg
}

func decodeReply(body []byte) (apiReply, error) {
	var r apiReply
	if err := json.Unmarshal(body, &r); err != nil {
		return apiReply{}, err
	}
	return r, nil
}
