package model

import (
	"time"
)

// 云端会话状态
const (
	SessionProcessing = "processing"
	SessionReady      = "ready"
	SessionCompleted  = "completed"
)

// SessionDoc 是会话在云端镜像里的文档，映射 chat_list 表
// 镜像只做展示用途，所有写入都是尽力而为，失败不影响会话本身
type SessionDoc struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdateTime time.Time `json:"update_time"`

	Title          string `gorm:"type:varchar(64)" json:"title"`
	Preview        string `gorm:"type:varchar(128)" json:"preview"`
	MessageCount   int    `json:"message_count"`
	Status         string `gorm:"type:varchar(16);index" json:"status"` // processing / ready / completed
	ConversationID string `gorm:"type:varchar(64)" json:"conversation_id,omitempty"`
	SummaryText    string `gorm:"type:text" json:"summary_text,omitempty"`
}

// TableName 强制指定表名
func (SessionDoc) TableName() string {
	return "chat_list"
}

// SessionDetail 是会话明细表 chat_details 的一条记录，只追加不修改
type SessionDetail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ChatID string `gorm:"type:varchar(36);index" json:"chat_id"`
	Role   string `gorm:"type:varchar(16)" json:"role"`
	Text   string `gorm:"type:text" json:"text"`
	Ts     int64  `json:"ts"`
}

// TableName 强制指定表名
func (SessionDetail) TableName() string {
	return "chat_details"
}
