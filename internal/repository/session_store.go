package repository

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lovecourt/backend/internal/model"
)

// SessionArchive 是一个会话需要落盘的全部内容，对应端上的四个存储键：
// 聊天记录、案情摘要、上游会话 ID、云端会话文档 ID
type SessionArchive struct {
	History        []model.ChatMessage `json:"history"`
	Summary        *model.CaseSummary  `json:"summary,omitempty"`
	ConversationID string              `json:"conversation_id,omitempty"`
	CloudSessionID string              `json:"cloud_session_id,omitempty"`
}

// SessionStore 把会话存档写到本地文件，每个用户一个 JSON 文件
// 所有读写都是尽力而为：会话完全可以只活在内存里，
// 所以失败只记日志、绝不向调用方抛错（Try 前缀即此含义）
type SessionStore struct {
	mu  sync.Mutex
	dir string
}

// NewSessionStore 构造本地会话存储，目录按需创建
func NewSessionStore(dataDir string) *SessionStore {
	return &SessionStore{dir: filepath.Join(dataDir, "sessions")}
}

func (s *SessionStore) path(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

// TryLoad 读取用户的会话存档，读不到返回空档案
func (s *SessionStore) TryLoad(userID string) SessionArchive {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("读取会话存档失败", "user", userID, "error", err)
		}
		return SessionArchive{}
	}

	var archive SessionArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		slog.Warn("会话存档损坏，按空档案处理", "user", userID, "error", err)
		return SessionArchive{}
	}
	return archive
}

// TrySave 覆盖写入用户的会话存档
func (s *SessionStore) TrySave(userID string, archive SessionArchive) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		slog.Warn("创建存档目录失败", "error", err)
		return
	}
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		slog.Warn("序列化会话存档失败", "user", userID, "error", err)
		return
	}
	if err := os.WriteFile(s.path(userID), data, 0644); err != nil {
		slog.Warn("写入会话存档失败", "user", userID, "error", err)
	}
}

// TryClear 删除用户的会话存档
func (s *SessionStore) TryClear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		slog.Warn("清除会话存档失败", "user", userID, "error", err)
	}
}
