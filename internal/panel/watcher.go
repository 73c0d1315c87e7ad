package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	hub "tradyfit/backend/internal/websocket"
)

// Watcher 订阅服务端推送，收到新消息或计数变化时刷新当前分类。
type Watcher struct {
	endpoint  string
	token     string
	refresher *Refresher
	category  func() string
	onRefresh func(*Pending)
	dialer    *websocket.Dialer
	log       *zap.Logger
}

// NewWatcher 创建推送订阅。category 返回当前正在显示的分类。
func NewWatcher(baseURL, token string, refresher *Refresher, category func() string, log *zap.Logger) (*Watcher, error) {
	endpoint, err := websocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		endpoint:  endpoint,
		token:     token,
		refresher: refresher,
		category:  category,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:       log,
	}, nil
}

// OnRefresh 设置每次推送触发刷新后的回调
func (w *Watcher) OnRefresh(fn func(*Pending)) {
	w.onRefresh = fn
}

// Run 连接并处理推送，直到 ctx 结束或连接断开。
func (w *Watcher) Run(ctx context.Context) error {
	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	conn, resp, err := w.dialer.DialContext(ctx, w.endpoint, header)
	if err != nil {
		if resp != nil {
			return &StatusError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer conn.Close()

	// 读循环退出时 done 关闭，关闭协程随之结束
	done := make(chan struct{})
	closerExited := make(chan struct{})
	go func() {
		defer close(closerExited)
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-closerExited
	}()

	w.log.Info("watching for message updates", zap.String("endpoint", w.endpoint))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}

		var event hub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			w.log.Warn("ignoring malformed event", zap.Error(err))
			continue
		}
		w.handle(ctx, event)
	}
}

func (w *Watcher) handle(ctx context.Context, event hub.Event) {
	switch event.Type {
	case hub.EventNewMessage, hub.EventCounts:
		p := w.refresher.Refresh(ctx, w.category())
		if w.onRefresh != nil {
			w.onRefresh(p)
		}
	default:
	}
}

// websocketURL 把 http(s) 服务地址转换为 ws(s)://.../ws
func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New("base url must use http or https")
	}
	u.Path += "/ws"
	return u.String(), nil
}
