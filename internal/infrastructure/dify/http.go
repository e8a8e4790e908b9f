package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lovecourt/backend/internal/config"
)

// 默认调用参数：聊天 15s / 2 次重试，工作流 20s，连通性探测 8s / 1 次重试
const (
	defaultTimeout  = 15 * time.Second
	workflowTimeout = 20 * time.Second
	pingTimeout     = 8 * time.Second

	defaultRetries = 2
	backoffStep    = 300 * time.Millisecond
)

// summaryAliases 是工作流输入的历史别名，全部填充以兼容不同版本的工作流编排
var summaryAliases = []string{
	"summary", "Summary", "case_summary", "caseSummary", "input", "text", "content",
}

// CallOptions 允许单次调用覆盖超时和重试次数
type CallOptions struct {
	Timeout    time.Duration
	MaxRetries int // 额外尝试次数，不含首次；0 取默认值，-1 表示不重试
}

func (o CallOptions) withDefaults() CallOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultRetries
	} else if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

// DirectClient 直连 Dify，聊天应用与判决工作流允许各自的地址和密钥
type DirectClient struct {
	chat     config.DifyConfig
	workflow config.DifyConfig
	client   *http.Client
	notifier Notifier

	// sleep 可注入，测试里用来观测退避节奏
	sleep func(d time.Duration)
}

// NewDirectClient 构造直连客户端
func NewDirectClient(chat, workflow config.DifyConfig, notifier Notifier) *DirectClient {
	return &DirectClient{
		chat:     chat,
		workflow: workflow,
		client:   &http.Client{},
		notifier: notifier,
		sleep:    time.Sleep,
	}
}

func (c *DirectClient) Name() string { return "direct" }

// upstreamError 是 Dify 错误响应体里可能出现的提示字段
type upstreamError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do 发送一次 HTTP 调用并按策略重试
// 传输失败、429 和 5xx 按 300ms×(attempt+1) 线性退避重试，其余 4xx 立即失败
// 所有终态失败都会给用户弹一条提示
func (c *DirectClient) do(ctx context.Context, target config.DifyConfig, path, method string, body any, opts CallOptions) ([]byte, error) {
	if target.BaseURL == "" {
		safeNotify(c.notifier, "服务地址未配置，请联系管理员")
		return nil, ErrBaseURLMissing
	}
	opts = opts.withDefaults()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化请求失败: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		data, err := c.once(ctx, target, path, method, payload, opts.Timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err

		httpErr, isHTTP := err.(*HTTPError)
		retryable := !isHTTP || httpErr.Retryable()
		if !retryable || attempt >= opts.MaxRetries {
			break
		}
		delay := backoffStep * time.Duration(attempt+1)
		slog.Warn("请求失败，退避后重试", "path", path, "attempt", attempt, "delay", delay, "error", err)
		c.sleep(delay)
	}

	if httpErr, ok := lastErr.(*HTTPError); ok {
		safeNotify(c.notifier, httpErr.Message)
	} else {
		safeNotify(c.notifier, "网络不稳定，请稍后再试")
	}
	return nil, lastErr
}

// once 执行单次尝试，超时由每次尝试独立计算
func (c *DirectClient) once(ctx context.Context, target config.DifyConfig, path, method string, payload []byte, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, target.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+target.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	var ue upstreamError
	_ = json.Unmarshal(data, &ue)
	serverMessage := ue.Message
	if serverMessage == "" {
		serverMessage = ue.Error
	}
	return nil, &HTTPError{Status: resp.StatusCode, Message: statusMessage(resp.StatusCode, serverMessage)}
}

// Chat 调用聊天应用 /v1/chat-messages
func (c *DirectClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body := map[string]any{
		"inputs":        map[string]any{},
		"query":         req.Query,
		"response_mode": "blocking",
	}
	if req.User != "" {
		body["user"] = req.User
	}
	if req.ConversationID != "" {
		body["conversation_id"] = req.ConversationID
	}

	data, err := c.do(ctx, c.chat, "/v1/chat-messages", http.MethodPost, body, CallOptions{})
	if err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("解析聊天响应失败: %w", err)
	}
	return &resp, nil
}

// Judge 运行判决工作流
// 先走 /v1/workflows/run（workflow_id 放请求体），失败且配置了 id 时再试 RESTful 路径
func (c *DirectClient) Judge(ctx context.Context, summary, user string) (json.RawMessage, error) {
	inputs := map[string]any{}
	for _, alias := range summaryAliases {
		inputs[alias] = summary
	}
	body := map[string]any{
		"inputs":        inputs,
		"response_mode": "blocking",
	}
	if user != "" {
		body["user"] = user
	}

	alt := make(map[string]any, len(body)+1)
	for k, v := range body {
		alt[k] = v
	}
	if c.workflow.WorkflowID != "" {
		alt["workflow_id"] = c.workflow.WorkflowID
	}

	opts := CallOptions{Timeout: workflowTimeout}
	data, err := c.do(ctx, c.workflow, "/v1/workflows/run", http.MethodPost, alt, opts)
	if err == nil {
		return data, nil
	}
	if c.workflow.WorkflowID == "" {
		return nil, err
	}
	return c.do(ctx, c.workflow, "/v1/workflows/"+c.workflow.WorkflowID+"/run", http.MethodPost, body, opts)
}

// Ping 向聊天应用发一条 [PING] 验证连通与鉴权
func (c *DirectClient) Ping(ctx context.Context) error {
	body := map[string]any{
		"inputs":        map[string]any{},
		"query":         "[PING]",
		"response_mode": "blocking",
		"user":          "connectivity-test",
	}
	_, err := c.do(ctx, c.chat, "/v1/chat-messages", http.MethodPost, body, CallOptions{Timeout: pingTimeout, MaxRetries: 1})
	return err
}
