package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnsupportedChannel(t *testing.T) {
	_, err := New("wechat", "key", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedChannel))
}

func TestNew_KindIsCaseInsensitive(t *testing.T) {
	p, err := New(" PushPlus ", "key", 0)
	require.NoError(t, err)
	assert.Equal(t, ChannelPushPlus, p.Channel())
	assert.Equal(t, FormatHTML, p.Format())

	p, err = New("telegram", "token", 42)
	require.NoError(t, err)
	assert.Equal(t, FormatText, p.Format())
}

func TestServerChan_Push(t *testing.T) {
	var gotPath, gotTitle, gotDesp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, r.ParseForm())
		gotTitle, gotDesp = r.PostForm.Get("title"), r.PostForm.Get("desp")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"","data":{"pushid":"1"}}`))
	}))
	defer srv.Close()

	p, err := New(ChannelServerChan, "SCT123", 0, WithBaseURL(srv.URL))
	require.NoError(t, err)
	require.NoError(t, p.Push(context.Background(), "早间新闻", "<p>hi</p>"))

	assert.Equal(t, "/SCT123.send", gotPath)
	assert.Equal(t, "早间新闻", gotTitle)
	assert.Equal(t, "<p>hi</p>", gotDesp)
}

func TestServerChan_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":40001,"message":"bad key"}`))
	}))
	defer srv.Close()

	p, err := New(ChannelServerChan, "bad", 0, WithBaseURL(srv.URL))
	require.NoError(t, err)

	err = p.Push(context.Background(), "t", "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "bad key")
}

func TestPushPlus_Push(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":200,"msg":"请求成功","data":"abc"}`))
	}))
	defer srv.Close()

	p, err := New(ChannelPushPlus, "token-1", 0, WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	require.NoError(t, p.Push(context.Background(), "晚间新闻", "<html></html>"))

	assert.Equal(t, map[string]string{
		"token":    "token-1",
		"title":    "晚间新闻",
		"content":  "<html></html>",
		"template": "html",
	}, got)
}

func TestPushPlus_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "bad_code", status: http.StatusOK, body: `{"code":999,"msg":"token error"}`},
		{name: "http_error", status: http.StatusBadGateway, body: `oops`},
		{name: "not_json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := New(ChannelPushPlus, "t", 0, WithBaseURL(srv.URL))
			require.NoError(t, err)
			assert.Error(t, p.Push(context.Background(), "t", "b"))
		})
	}
}

func TestTelegram_PushSplitsLongBody(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
		chats []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"digest","username":"digest_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			mu.Lock()
			texts = append(texts, r.Form.Get("text"))
			chats = append(chats, r.Form.Get("chat_id"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := New(ChannelTelegram, "123:abc", 42, WithBaseURL(srv.URL))
	require.NoError(t, err)

	line := strings.Repeat("新", 100)
	body := strings.TrimSuffix(strings.Repeat(line+"\n", 60), "\n")
	require.NoError(t, p.Push(context.Background(), "早间新闻", body))

	require.Len(t, texts, 2)
	assert.True(t, strings.HasPrefix(texts[0], "早间新闻\n\n"))
	for i, text := range texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(text), TelegramMaxRunes)
		assert.Equal(t, "42", chats[i])
	}
}

func TestTelegram_BadTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	p, err := New(ChannelTelegram, "bad", 42, WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Error(t, p.Push(context.Background(), "t", "b"))
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, SplitMessage("", 10))
	assert.Equal(t, []string{"a\nb"}, SplitMessage("a\nb", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, SplitMessage("aaaa\nbbbb", 6))
	assert.Equal(t, []string{"abcd", "efg", "xy"}, SplitMessage("abcdefg\nxy", 4))

	long := strings.Repeat("字", 9)
	for _, c := range SplitMessage(long, 4) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 4)
	}
}
