package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const pushPlusURL = "http://www.pushplus.plus"

// PushPlus JSON 提交，模板为 html，code 为 200 表示成功
type PushPlus struct {
	token   string
	baseURL string
	client  *resty.Client
}

func newPushPlus(token string, o options) *PushPlus {
	base := o.baseURL
	if base == "" {
		base = pushPlusURL
	}
	return &PushPlus{token: token, baseURL: base, client: newClient(o)}
}

func (p *PushPlus) Channel() string { return ChannelPushPlus }
func (p *PushPlus) Format() Format  { return FormatHTML }

func (p *PushPlus) Push(ctx context.Context, title, body string) (err error) {
	defer func() { record(ChannelPushPlus, err) }()

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"token":    p.token,
			"title":    title,
			"content":  body,
			"template": "html",
		}).
		Post(p.baseURL + "/send")
	if err != nil {
		return fmt.Errorf("pushplus request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pushplus status %d: %w", resp.StatusCode(), ErrRejected)
	}
	reply, err := decodeReply(resp.Body())
	if err != nil {
		return fmt.Errorf("pushplus reply: %w", err)
	}
	if reply.Code != 200 {
		return fmt.Errorf("pushplus code %d %s: %w", reply.Code, reply.text(), ErrRejected)
	}
	return nil
}
