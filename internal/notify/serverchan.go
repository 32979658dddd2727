package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
)

const serverChanURL = "https://sctapi.ftqq.com"

// ServerChan Server酱：表单提交 title/desp，code 为 0 表示成功
type ServerChan struct {
	key     string
	baseURL string
	client  *resty.Client
}

func newServerChan(key string, o options) *ServerChan {
	base := o.baseURL
	if base == "" {
		base = serverChanURL
	}
	return &ServerChan{key: key, baseURL: base, client: newClient(o)}
}

func (s *ServerChan) Channel() string { return ChannelServerChan }
func (s *ServerChan) Format() Format  { return FormatHTML }

func (s *ServerChan) Push(ctx context.Context, title, body string) (err error) {
	defer func() { record(ChannelServerChan, err) }()

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"title": title, "desp": body}).
		Post(s.baseURL + "/" + url.PathEscape(s.key) + ".send")
	if err != nil {
		return fmt.Errorf("serverchan request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("serverchan status %d: %w", resp.StatusCode(), ErrRejected)
	}
	reply, err := decodeReply(resp.Body())
	if err != nil {
		return fmt.Errorf("serverchan reply: %w", err)
	}
	if reply.Code != 0 {
		return fmt.Errorf("serverchan code %d %s: %w", reply.Code, reply.text(), ErrRejected)
	}
	return nil
}
