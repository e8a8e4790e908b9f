package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lovecourt/backend/internal/config"
)

// 中转函数名：聊天和判决由两个独立的云函数承接，各自持有自己的密钥
const (
	relayChatFunc  = "difyChat"
	relayJudgeFunc = "difyJudge"
)

// 中转动作名
const (
	ActionChatMessages  = "chatMessages"
	ActionWorkflowJudge = "workflowJudge"
	ActionPing          = "ping"
	ActionDiagnoseChat  = "diagnoseChat"
	ActionDiagnoseJudge = "diagnoseJudge"
)

// relayEnvelope 是中转函数的统一返回壳
type relayEnvelope struct {
	OK     bool            `json:"ok"`
	Data   json.RawMessage `json:"data,omitempty"`
	Status int             `json:"status,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RelayClient 通过云函数中转访问 Dify，密钥由中转侧注入
// 中转自身不做重试，失败即交给外层 Chain 决定是否回退直连
type RelayClient struct {
	baseURL  string
	client   *http.Client
	notifier Notifier
}

// NewRelayClient 构造中转客户端
func NewRelayClient(cfg config.RelayConfig, notifier Notifier) *RelayClient {
	return &RelayClient{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{},
		notifier: notifier,
	}
}

func (c *RelayClient) Name() string { return "relay" }

// Call 调用一个命名中转函数并拆开 {ok, data} 壳
func (c *RelayClient) Call(ctx context.Context, name, action string, payload any, timeout time.Duration) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrBaseURLMissing
	}
	body, err := json.Marshal(map[string]any{"action": action, "payload": payload})
	if err != nil {
		return nil, fmt.Errorf("序列化中转请求失败: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope relayEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("解析中转响应失败: %w", err)
	}
	if !envelope.OK {
		message := envelope.Error
		if message == "" {
			message = "云函数请求失败"
		}
		relayErr := &RelayError{Status: envelope.Status, Message: message}
		safeNotify(c.notifier, relayErr.Error())
		return nil, relayErr
	}
	return envelope.Data, nil
}

// Chat 经 difyChat 中转发送一轮对话
func (c *RelayClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload := map[string]any{
		"inputs":        map[string]any{},
		"query":         req.Query,
		"response_mode": "blocking",
	}
	if req.User != "" {
		payload["user"] = req.User
	}
	if req.ConversationID != "" {
		payload["conversation_id"] = req.ConversationID
	}

	data, err := c.Call(ctx, relayChatFunc, ActionChatMessages, payload, defaultTimeout)
	if err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("解析聊天响应失败: %w", err)
	}
	return &resp, nil
}

// Judge 经 difyJudge 中转运行判决工作流，输入别名由中转侧填充
func (c *RelayClient) Judge(ctx context.Context, summary, user string) (json.RawMessage, error) {
	payload := map[string]any{"summary": summary}
	if user != "" {
		payload["user"] = user
	}
	return c.Call(ctx, relayJudgeFunc, ActionWorkflowJudge, payload, workflowTimeout)
}

// Ping 探测中转函数本身是否可达，不会访问第三方
func (c *RelayClient) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, relayJudgeFunc, ActionPing, map[string]any{}, pingTimeout)
	return err
}
