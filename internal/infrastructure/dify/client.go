package dify

import (
	"context"
	"encoding/json"

	"github.com/lovecourt/backend/internal/model"
)

// ChatRequest 是一轮对话的入参
type ChatRequest struct {
	Query string `json:"query"`
	User  string `json:"user,omitempty"`
	// ConversationID 是 Dify 签发的会话令牌，回传即可延续上下文，留空则新开会话
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatMetadata 是聊天应用随回答附带的元信息
type ChatMetadata struct {
	Round        int                `json:"round,omitempty"`
	SummaryReady bool               `json:"summary_ready,omitempty"`
	Summary      *model.CaseSummary `json:"summary,omitempty"`
}

// ChatResponse 是一轮对话的结果
type ChatResponse struct {
	Answer         string        `json:"answer"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Metadata       *ChatMetadata `json:"metadata,omitempty"`
}

// Provider 定义了 Dify 后端的通用行为
// 直连、云函数中转和 Mock 都实现这个接口，外层通过 Chain 按序尝试
type Provider interface {
	// Chat 发送一轮对话
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Judge 运行判决工作流，返回原始结果交给 normalizer 解析
	Judge(ctx context.Context, summary, user string) (json.RawMessage, error)
	// Ping 做一次轻量连通性探测
	Ping(ctx context.Context) error
	// Name 用于日志里区分走了哪条链路
	Name() string
}

// Resettable 由带轮次状态的实现（目前只有 Mock）提供，会话 reset 时一并清零
type Resettable interface {
	ResetRounds()
}
