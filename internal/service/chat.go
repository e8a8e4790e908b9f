package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/normalizer"
	"github.com/lovecourt/backend/internal/repository"
)

var (
	errSessionBusy = errors.New("会话有在途请求")
	errNoSummary   = errors.New("缺少案情摘要")
)

// Snapshot 是会话对外暴露的只读视图
type Snapshot struct {
	State           model.ConversationState `json:"state"`
	Loading         bool                    `json:"loading"`
	History         []model.ChatMessage     `json:"history"`
	Summary         *model.CaseSummary      `json:"summary,omitempty"`
	ConversationID  string                  `json:"conversation_id,omitempty"`
	IsInputDisabled bool                    `json:"is_input_disabled"`
}

// ChatSession 驱动一个用户的陈述会话：
// idle → chatting → readyToJudge → judging → done，error 可从 chatting/judging 进入且允许重试
// loading 门闩保证同一会话同时只有一个在途请求
type ChatSession struct {
	mu sync.Mutex

	userID         string
	state          model.ConversationState
	history        []model.ChatMessage
	summary        *model.CaseSummary
	conversationID string
	cloudSessionID string
	loading        bool
	lastVerdict    *VerdictResult

	provider dify.Provider
	store    *repository.SessionStore
	mirror   repository.SessionMirror
}

// newChatSession 构造会话并从本地存档恢复
func newChatSession(userID string, provider dify.Provider, store *repository.SessionStore, mirror repository.SessionMirror) *ChatSession {
	s := &ChatSession{
		userID:   userID,
		state:    model.StateIdle,
		provider: provider,
		store:    store,
		mirror:   mirror,
	}

	archive := store.TryLoad(userID)
	s.history = archive.History
	s.summary = archive.Summary
	s.conversationID = archive.ConversationID
	s.cloudSessionID = archive.CloudSessionID
	switch {
	case s.summary != nil:
		s.state = model.StateReadyToJudge
	case len(s.history) > 0:
		s.state = model.StateChatting
	}
	return s
}

// Snapshot 返回当前视图
func (s *ChatSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatSession) snapshotLocked() Snapshot {
	history := make([]model.ChatMessage, len(s.history))
	copy(history, s.history)
	return Snapshot{
		State:           s.state,
		Loading:         s.loading,
		History:         history,
		Summary:         s.summary,
		ConversationID:  s.conversationID,
		IsInputDisabled: s.inputDisabledLocked(),
	}
}

// inputDisabledLocked：摘要已就绪、判决中、已完成或有在途请求时禁止输入
func (s *ChatSession) inputDisabledLocked() bool {
	switch s.state {
	case model.StateReadyToJudge, model.StateJudging, model.StateDone:
		return true
	}
	return s.loading
}

// Start 从 idle 进入 chatting，其余状态下是空操作
func (s *ChatSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.StateIdle {
		s.state = model.StateChatting
	}
}

// SendMessage 发送一轮陈述
// 空白输入、在途请求或输入已禁用时整体空操作，返回当前视图
// 传输失败会把状态置为 error，但历史里保留用户这条消息，等待重试
func (s *ChatSession) SendMessage(ctx context.Context, text string) (Snapshot, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.loading || s.inputDisabledLocked() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if s.state == model.StateIdle {
		s.state = model.StateChatting
	}
	s.loading = true

	userMessage := model.NewChatMessage(text, model.RoleUser)
	s.history = append(s.history, userMessage)
	conversationID := s.conversationID
	cloudSessionID := s.cloudSessionID
	s.persistLocked()
	s.mu.Unlock()

	// 云端镜像：确保会话文档存在并记录这条陈述，全程尽力而为
	sid := s.mirror.EnsureSession(ctx, cloudSessionID, userMessage.Text)
	if sid != "" && sid != cloudSessionID {
		s.mu.Lock()
		s.cloudSessionID = sid
		s.persistLocked()
		s.mu.Unlock()
		cloudSessionID = sid
	}
	s.mirror.AppendDetail(ctx, cloudSessionID, userMessage)
	s.mirror.UpdateAfterMessage(ctx, cloudSessionID, userMessage.Text, 1, "")

	resp, err := s.provider.Chat(ctx, dify.ChatRequest{
		Query:          text,
		User:           s.userID,
		ConversationID: conversationID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		slog.Error("对话请求失败", "user", s.userID, "error", err)
		s.state = model.StateError
		return s.snapshotLocked(), err
	}

	// 成功一轮后从 error 回到 chatting，错误不是终态
	if s.state == model.StateError {
		s.state = model.StateChatting
	}
	if resp.ConversationID != "" {
		s.conversationID = resp.ConversationID
	}
	aiMessage := model.NewChatMessage(resp.Answer, model.RoleAI)
	s.history = append(s.history, aiMessage)
	s.persistLocked()

	s.mirror.AppendDetail(ctx, s.cloudSessionID, aiMessage)
	s.mirror.UpdateAfterMessage(ctx, s.cloudSessionID, aiMessage.Text, 1, resp.ConversationID)

	if extracted := normalizer.ExtractSummary(resp.Answer, resp.Metadata); extracted != nil {
		s.summary = extracted
		s.state = model.StateReadyToJudge
		s.persistLocked()
		s.mirror.UpdateSummary(ctx, s.cloudSessionID, extracted.Text)
	} else if resp.Metadata != nil && resp.Metadata.SummaryReady {
		// 就绪标记但正文解析不出：照常进入待判决，摘要维持原状
		s.state = model.StateReadyToJudge
	}

	return s.snapshotLocked(), nil
}

// SetSummary 人工修正摘要（仅在待判决前有意义）
func (s *ChatSession) SetSummary(summary *model.CaseSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.persistLocked()
}

// Reset 整体清空：历史、摘要、会话令牌、本地存档和 Mock 轮次
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.summary = nil
	s.conversationID = ""
	s.cloudSessionID = ""
	s.state = model.StateIdle
	s.loading = false
	s.lastVerdict = nil
	s.store.TryClear(s.userID)
	if r, ok := s.provider.(dify.Resettable); ok {
		r.ResetRounds()
	}
}

// persistLocked 把当前档案写入本地存储，调用方需持锁
func (s *ChatSession) persistLocked() {
	s.store.TrySave(s.userID, repository.SessionArchive{
		History:        s.history,
		Summary:        s.summary,
		ConversationID: s.conversationID,
		CloudSessionID: s.cloudSessionID,
	})
}

// beginJudging 进入判决流程并占用在途请求门闩
// override 非空时用它作为摘要文本，否则取会话里的定稿摘要
func (s *ChatSession) beginJudging(override string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return "", errSessionBusy
	}
	text := override
	if text == "" {
		if s.summary == nil {
			return "", errNoSummary
		}
		text = s.summary.Text
	}
	s.state = model.StateJudging
	s.loading = true
	return text, nil
}

// finishJudging 记录判决结果并收尾状态机
// 失败时摘要保留，允许用户重试
func (s *ChatSession) finishJudging(result *VerdictResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastVerdict = result
	if result.State == model.VerdictSuccess {
		s.state = model.StateDone
	} else {
		s.state = model.StateError
	}
}

// LastVerdict 返回最近一次判决结果，可能为 nil
func (s *ChatSession) LastVerdict() *VerdictResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVerdict
}

// CloudSessionID 返回云端会话文档 ID，可能为空
func (s *ChatSession) CloudSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloudSessionID
}

// SessionManager 按用户维护会话实例
// 每个会话持有独立的 Provider（Mock 轮次等会话级状态由此隔离）
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*ChatSession

	newProvider func() dify.Provider
	store       *repository.SessionStore
	mirror      repository.SessionMirror
}

// NewSessionManager 构造会话管理器
func NewSessionManager(newProvider func() dify.Provider, store *repository.SessionStore, mirror repository.SessionMirror) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*ChatSession),
		newProvider: newProvider,
		store:       store,
		mirror:      mirror,
	}
}

// Get 取出（或懒创建）用户的会话
func (m *SessionManager) Get(userID string) *ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := newChatSession(userID, m.newProvider(), m.store, m.mirror)
	m.sessions[userID] = s
	return s
}
