// Package client 是 dataroom REST API 的 Go 客户端.
//
// Client 负责传输：附加 Bearer 令牌、用 sonic 编解码 JSON、把非 2xx 响应转成 *StatusError.
// DataRooms、Folders、Files 是面向界面的访问器，除文件下载与上传外都吞掉错误（记录日志后返回零值）.
//
//	c := client.New("http://localhost:8000")
//	if err := c.Auth().Login(ctx, "alice"); err != nil {
//		return err
//	}
//	rooms := c.DataRooms().List(ctx)
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/dataroom/pkg/configs"
)

// maxErrorBody 错误响应体最多保留的字节数.
const maxErrorBody = 4 << 10

// StatusError 非 2xx 响应.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Code)
	}

	return fmt.Sprintf("dataroom api: %d %s", e.Code, msg)
}

// Client 传输层，零值不可用，使用 New 创建.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string

	rooms *DataRooms
}

// Option 配置 Client.
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout 设置请求超时.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken 使用已有的访问令牌.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New 创建客户端，baseURL 为空时使用默认地址.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = configs.DefaultAPIBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.rooms = &DataRooms{c: c}

	return c
}

// NewFromConfig 按 client 配置创建.
func NewFromConfig(cfg configs.ClientConfig, opts ...Option) *Client {
	return New(cfg.APIBaseURL, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...)
}

// BaseURL 返回 API 地址.
func (c *Client) BaseURL() string { return c.baseURL }

// Token 返回当前访问令牌.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// SetToken 替换访问令牌，空字符串表示未登录.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Auth 登录与登出.
func (c *Client) Auth() *Auth { return &Auth{c: c} }

// DataRooms 数据室访问器，同一个 Client 共享列表状态.
func (c *Client) DataRooms() *DataRooms { return c.rooms }

// Folders 文件夹访问器.
func (c *Client) Folders() *Folders { return &Folders{c: c} }

// Files 文件访问器.
func (c *Client) Files() *Files { return &Files{c: c} }

// Do 发送请求，非 2xx 时读取响应体并返回 *StatusError. 成功时调用方负责关闭 Body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	return resp, nil
}

// DoJSON 以 JSON 发送 in（可为 nil）并把响应解码到 out（可为 nil）.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)

	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body, contentType = bytes.NewReader(b), "application/json"
	}

	resp, err := c.Do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := decode(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func decode(r io.Reader, out any) error {
	return sonic.ConfigDefault.NewDecoder(r).Decode(out)
}
