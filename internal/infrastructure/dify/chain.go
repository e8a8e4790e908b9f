package dify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lovecourt/backend/internal/config"
)

// Chain 按固定顺序尝试多个后端实现，第一个成功的结果直接返回
// 这取代了历史版本里层层嵌套的 try/catch 回退：
//   - Mock 模式：只有 Mock 一个候选
//   - 配置了中转：中转优先，失败后回退直连
//   - cloud_only：候选被截断成只剩中转，失败即为终态
//
// 每个候选各自执行自己的重试策略，链路之间没有合并的重试预算
type Chain struct {
	candidates []Provider
}

// NewChain 根据配置装配候选链
func NewChain(cfg *config.Config, notifier Notifier) *Chain {
	if cfg.Mock.Enabled {
		return &Chain{candidates: []Provider{NewMockClient()}}
	}

	direct := NewDirectClient(cfg.Chat, cfg.Workflow, notifier)
	if cfg.Relay.BaseURL == "" {
		return &Chain{candidates: []Provider{direct}}
	}

	relay := NewRelayClient(cfg.Relay, notifier)
	if cfg.Relay.CloudOnly {
		return &Chain{candidates: []Provider{relay}}
	}
	return &Chain{candidates: []Provider{relay, direct}}
}

// NewChainOf 直接给定候选，测试用
func NewChainOf(candidates ...Provider) *Chain {
	return &Chain{candidates: candidates}
}

func (c *Chain) Name() string { return "chain" }

// Chat 逐个候选尝试一轮对话
func (c *Chain) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for i, p := range c.candidates {
		resp, err := p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i < len(c.candidates)-1 {
			slog.Warn("链路失败，回退下一候选", "provider", p.Name(), "error", err)
		}
	}
	return nil, lastErr
}

// Judge 逐个候选运行判决工作流
func (c *Chain) Judge(ctx context.Context, summary, user string) (json.RawMessage, error) {
	var lastErr error
	for i, p := range c.candidates {
		raw, err := p.Judge(ctx, summary, user)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if i < len(c.candidates)-1 {
			slog.Warn("链路失败，回退下一候选", "provider", p.Name(), "error", err)
		}
	}
	return nil, lastErr
}

// Ping 任一候选可达即视为连通
func (c *Chain) Ping(ctx context.Context) error {
	var lastErr error
	for _, p := range c.candidates {
		if err := p.Ping(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// ResetRounds 把带轮次状态的候选一并清零
func (c *Chain) ResetRounds() {
	for _, p := range c.candidates {
		if r, ok := p.(Resettable); ok {
			r.ResetRounds()
		}
	}
}

var _ Provider = (*Chain)(nil)
