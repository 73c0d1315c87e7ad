package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/urls"
)

const (
	// 错误响应体最多保留的字节数
	maxErrorBody = 512
	// 成功响应体上限
	maxResponseBody = 4 << 20
)

// 缺少 msgs 字段或为 null 的响应视为格式错误
var errMissingMessages = errors.New("response has no msgs list")

// Client 通过 HTTP 请求 /notifications，实现 Fetcher。
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient 创建 HTTP 客户端，token 作为 Bearer 令牌发送，为空时不带认证头。
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: urls.NewGenerator(baseURL).NotificationsURL(),
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
}

// Fetch 以表单字段 type 提交分类，并解析响应。
func (c *Client) Fetch(ctx context.Context, category string) (*domain.MessageListResponse, error) {
	form := url.Values{"type": {category}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return decodeList(body)
}

// decodeList 解析列表响应，msgs 为空数组合法，缺失或 null 不合法。
func decodeList(body []byte) (*domain.MessageListResponse, error) {
	var shape struct {
		Messages *[]domain.MessageSummary `json:"msgs"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if shape.Messages == nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, errMissingMessages)
	}

	var list domain.MessageListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if list.Messages == nil {
		list.Messages = []domain.MessageSummary{}
	}
	return &list, nil
}
