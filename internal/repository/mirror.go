package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lovecourt/backend/internal/model"
	"gorm.io/gorm"
)

const sessionTitle = "情感检举"

// SessionMirror 把会话镜像到远端文档库（chat_list / chat_details），
// 只服务于会话列表展示，不参与核心正确性：
// 所有方法失败时静默降级为空操作，错误只进日志
type SessionMirror interface {
	// EnsureSession 确保会话文档存在，返回文档 ID；失败返回原值或空串
	EnsureSession(ctx context.Context, sessionID, firstText string) string
	// AppendDetail 追加一条明细记录
	AppendDetail(ctx context.Context, sessionID string, msg model.ChatMessage)
	// UpdateAfterMessage 每条消息后刷新预览、计数和会话令牌
	UpdateAfterMessage(ctx context.Context, sessionID, latestText string, inc int, conversationID string)
	// UpdateSummary 记录摘要并把状态推到 ready
	UpdateSummary(ctx context.Context, sessionID, summaryText string)
	// MarkCompleted 判决完成后把状态推到 completed
	MarkCompleted(ctx context.Context, sessionID string)
}

// dbMirror 基于 MySQL 的镜像实现
type dbMirror struct {
	db *gorm.DB
}

// NewSessionMirror 构造数据库镜像，db 为 nil 时退化为空操作
func NewSessionMirror(db *gorm.DB) SessionMirror {
	if db == nil {
		return noopMirror{}
	}
	return &dbMirror{db: db}
}

// trimPreview 预览截断到 40 个字符，超出补省略号
func trimPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= 40 {
		return text
	}
	return string(runes[:40]) + "…"
}

func (m *dbMirror) EnsureSession(ctx context.Context, sessionID, firstText string) string {
	if sessionID != "" {
		var doc model.SessionDoc
		err := m.db.WithContext(ctx).First(&doc, "id = ?", sessionID).Error
		if err == nil {
			return sessionID
		}
		// 文档不存在则重建
	}

	id, _ := uuid.NewV7()
	doc := model.SessionDoc{
		ID:         id.String(),
		Title:      sessionTitle,
		Preview:    trimPreview(firstText),
		UpdateTime: time.Now(),
		Status:     model.SessionProcessing,
	}
	if err := m.db.WithContext(ctx).Create(&doc).Error; err != nil {
		slog.Warn("创建云端会话失败", "error", err)
		return ""
	}
	return doc.ID
}

func (m *dbMirror) AppendDetail(ctx context.Context, sessionID string, msg model.ChatMessage) {
	if sessionID == "" {
		return
	}
	detail := model.SessionDetail{
		ChatID: sessionID,
		Role:   msg.Role,
		Text:   msg.Text,
		Ts:     msg.Ts,
	}
	if err := m.db.WithContext(ctx).Create(&detail).Error; err != nil {
		slog.Warn("追加会话明细失败", "session", sessionID, "error", err)
	}
}

func (m *dbMirror) UpdateAfterMessage(ctx context.Context, sessionID, latestText string, inc int, conversationID string) {
	if sessionID == "" {
		return
	}
	if inc < 1 {
		inc = 1
	}
	patch := map[string]any{
		"preview":       trimPreview(latestText),
		"update_time":   time.Now(),
		"message_count": gorm.Expr("message_count + ?", inc),
	}
	if conversationID != "" {
		patch["conversation_id"] = conversationID
	}
	if err := m.db.WithContext(ctx).Model(&model.SessionDoc{}).Where("id = ?", sessionID).Updates(patch).Error; err != nil {
		slog.Warn("更新云端会话失败", "session", sessionID, "error", err)
	}
}

func (m *dbMirror) UpdateSummary(ctx context.Context, sessionID, summaryText string) {
	if sessionID == "" {
		return
	}
	patch := map[string]any{
		"summary_text": summaryText,
		"status":       model.SessionReady,
		"update_time":  time.Now(),
	}
	if err := m.db.WithContext(ctx).Model(&model.SessionDoc{}).Where("id = ?", sessionID).Updates(patch).Error; err != nil {
		slog.Warn("更新云端摘要失败", "session", sessionID, "error", err)
	}
}

func (m *dbMirror) MarkCompleted(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	patch := map[string]any{
		"status":      model.SessionCompleted,
		"update_time": time.Now(),
	}
	if err := m.db.WithContext(ctx).Model(&model.SessionDoc{}).Where("id = ?", sessionID).Updates(patch).Error; err != nil {
		slog.Warn("标记会话完成失败", "session", sessionID, "error", err)
	}
}

// noopMirror 在未配置数据库时使用
type noopMirror struct{}

func (noopMirror) EnsureSession(context.Context, string, string) string { return "" }
func (noopMirror) AppendDetail(context.Context, string, model.ChatMessage) {
}
func (noopMirror) UpdateAfterMessage(context.Context, string, string, int, string) {}
func (noopMirror) UpdateSummary(context.Context, string, string)                   {}
func (noopMirror) MarkCompleted(context.Context, string)                           {}
