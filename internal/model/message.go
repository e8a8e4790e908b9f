package model

import (
	"time"

	"github.com/google/uuid"
)

// 消息角色
const (
	RoleUser   = "user"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// ChatMessage 是会话中的一条消息，创建后不再修改，只会追加到历史序列尾部
type ChatMessage struct {
	ID   string `json:"id"`
	Role string `json:"role"` // user / ai / system
	Text string `json:"text"`
	Ts   int64  `json:"ts"` // 毫秒时间戳
}

// NewChatMessage 构造一条消息
func NewChatMessage(text, role string) ChatMessage {
	id, _ := uuid.NewV7()
	return ChatMessage{
		ID:   role + "_" + id.String(),
		Role: role,
		Text: text,
		Ts:   time.Now().UnixMilli(),
	}
}

// CaseSummary 是整理完成的情感陈述摘要
// 每个案件只生成一次，生成后只读，直到 reset 清空
type CaseSummary struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords,omitempty"`
}

// NewCaseSummary 构造一份本地生成的摘要
func NewCaseSummary(text string, keywords []string) *CaseSummary {
	id, _ := uuid.NewV7()
	return &CaseSummary{
		ID:       "local_" + id.String(),
		Text:     text,
		Keywords: keywords,
	}
}
