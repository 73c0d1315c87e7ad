// Package panel 实现消息面板刷新器：按分类请求 /notifications，
// 然后用响应重建注入的消息列表容器，并可选地刷新标题和三个计数字段。
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"tradyfit/backend/internal/domain"
)

var (
	// ErrTransport 请求未能到达服务端或连接中断
	ErrTransport = errors.New("panel: transport failure")
	// ErrDecode 响应不是合法的消息列表 JSON
	ErrDecode = errors.New("panel: malformed response")
	// ErrNoSummaryFields 开启了计数刷新却没有注入计数字段
	ErrNoSummaryFields = errors.New("panel: summary fields required when UpdateSummaryFields is set")
)

// StatusError 表示服务端返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("panel: server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("panel: server returned status %d: %s", e.StatusCode, e.Body)
}

// RowClass 是每一行消息的样式类名
const RowClass = "msg"

// Row 是容器中的一行，对应一条消息。
type Row struct {
	Key   string // msg-<id>
	Class string
	Text  string // 链接文字，即消息主题
	Href  string // 消息详情链接
}

// RowKey 返回消息行的元素键
func RowKey(id uint) string {
	return "msg-" + strconv.FormatUint(uint64(id), 10)
}

// Container 是消息列表容器。
type Container interface {
	Clear()
	AppendRow(row Row)
}

// SummaryFields 是标题和三个计数显示字段。
type SummaryFields interface {
	SetTitle(text string)
	SetUnread(text string)
	SetSent(text string)
	SetReceived(text string)
}

// ErrorIndicator 在刷新失败时向用户展示错误，视图可选实现。
type ErrorIndicator interface {
	ShowError(err error)
}

// URLGenerator 根据消息 ID 生成详情链接，由 urls.Generator 实现。
type URLGenerator interface {
	MessageURL(id uint) string
}

// Fetcher 请求某个分类的消息列表。
type Fetcher interface {
	Fetch(ctx context.Context, category string) (*domain.MessageListResponse, error)
}

// Options 控制刷新行为
type Options struct {
	// UpdateSummaryFields 为 true 时在重建列表前刷新标题和三个计数
	UpdateSummaryFields bool
}

// View 汇总刷新器要修改的界面元素。
//
// Errors 为空时，若 Container 实现了 ErrorIndicator 则使用它。
type View struct {
	Container Container
	Summary   SummaryFields
	Errors    ErrorIndicator
}

// Refresher 是消息面板刷新器。
//
// 多次并发刷新互不等待，每个完成的响应在视图锁内整体重建视图，
// 最终显示的是最后到达的响应。
type Refresher struct {
	fetcher Fetcher
	urls    URLGenerator
	view    View
	opts    Options
	log     *zap.Logger

	mu       sync.Mutex // 保护视图
	inFlight atomic.Int32
}

// NewRefresher 创建刷新器。
func NewRefresher(fetcher Fetcher, urls URLGenerator, view View, opts Options, log *zap.Logger) (*Refresher, error) {
	if fetcher == nil || urls == nil || view.Container == nil {
		return nil, errors.New("panel: fetcher, url generator and container are required")
	}
	if opts.UpdateSummaryFields && view.Summary == nil {
		return nil, ErrNoSummaryFields
	}
	if view.Errors == nil {
		if indicator, ok := view.Container.(ErrorIndicator); ok {
			view.Errors = indicator
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		fetcher: fetcher,
		urls:    urls,
		view:    view,
		opts:    opts,
		log:     log,
	}, nil
}

// InFlight 返回尚未完成的请求数，0 表示空闲。
func (r *Refresher) InFlight() int {
	return int(r.inFlight.Load())
}

// Pending 是一次异步刷新的结果。
type Pending struct {
	done chan struct{}
	resp *domain.MessageListResponse
	err  error
}

// Done 在刷新完成（成功或失败）后关闭
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait 等待刷新完成并返回响应或错误。
//
// ctx 只限制等待本身，不会取消请求。
func (p *Pending) Wait(ctx context.Context) (*domain.MessageListResponse, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refresh 异步刷新，调用方可以忽略返回值。
func (r *Refresher) Refresh(ctx context.Context, category string) *Pending {
	p := &Pending{done: make(chan struct{})}
	r.inFlight.Add(1)
	go func() {
		defer close(p.done)
		defer r.inFlight.Add(-1)
		p.resp, p.err = r.refresh(ctx, category)
	}()
	return p
}

// RefreshSync 同步刷新，返回服务端响应。
func (r *Refresher) RefreshSync(ctx context.Context, category string) (*domain.MessageListResponse, error) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	return r.refresh(ctx, category)
}

// WithView 在视图锁内执行 fn，用于渲染时读取一致的视图。
func (r *Refresher) WithView(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *Refresher) refresh(ctx context.Context, category string) (*domain.MessageListResponse, error) {
	resp, err := r.fetcher.Fetch(ctx, category)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w: empty response", ErrDecode)
	}
	if err != nil {
		r.fail(category, err)
		return nil, err
	}

	r.mu.Lock()
	r.apply(resp)
	r.mu.Unlock()

	r.log.Debug("message panel refreshed",
		zap.String("category", category),
		zap.Int("messages", len(resp.Messages)),
	)
	return resp, nil
}

func (r *Refresher) apply(resp *domain.MessageListResponse) {
	if r.opts.UpdateSummaryFields {
		r.view.Summary.SetTitle(resp.Type)
		r.view.Summary.SetUnread(strconv.Itoa(resp.Unread))
		r.view.Summary.SetSent(strconv.Itoa(resp.Sent))
		r.view.Summary.SetReceived(strconv.Itoa(resp.Received))
	}

	r.view.Container.Clear()
	for _, msg := range resp.Messages {
		r.view.Container.AppendRow(Row{
			Key:   RowKey(msg.ID),
			Class: RowClass,
			Text:  msg.Subject,
			Href:  r.urls.MessageURL(msg.ID),
		})
	}
}

func (r *Refresher) fail(category string, err error) {
	r.log.Warn("message panel refresh failed",
		zap.String("category", category),
		zap.Error(err),
	)
	if r.view.Errors == nil {
		return
	}
	r.mu.Lock()
	r.view.Errors.ShowError(err)
	r.mu.Unlock()
}
