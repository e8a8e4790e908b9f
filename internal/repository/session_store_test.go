package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecourt/backend/internal/model"
)

func TestSessionStoreRoundtrip(t *testing.T) {
	store := NewSessionStore(t.TempDir())

	archive := SessionArchive{
		History: []model.ChatMessage{
			model.NewChatMessage("他又迟到了", model.RoleUser),
			model.NewChatMessage("我在听", model.RoleAI),
		},
		Summary:        model.NewCaseSummary("双方因迟到冷战", []string{"迟到", "冷战"}),
		ConversationID: "conv_1",
		CloudSessionID: "doc_1",
	}
	store.TrySave("u_1", archive)

	loaded := store.TryLoad("u_1")
	require.Len(t, loaded.History, 2)
	assert.Equal(t, "他又迟到了", loaded.History[0].Text)
	require.NotNil(t, loaded.Summary)
	assert.Equal(t, []string{"迟到", "冷战"}, loaded.Summary.Keywords)
	assert.Equal(t, "conv_1", loaded.ConversationID)
	assert.Equal(t, "doc_1", loaded.CloudSessionID)
}

func TestSessionStoreMissingArchive(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	assert.Equal(t, SessionArchive{}, store.TryLoad("nobody"))
}

func TestSessionStoreCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)

	// 存档损坏时按空档案处理，不向调用方抛错
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sessions"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions", "u_1.json"), []byte("{broken"), 0644))
	assert.Equal(t, SessionArchive{}, store.TryLoad("u_1"))
}

func TestSessionStoreClear(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	store.TrySave("u_1", SessionArchive{ConversationID: "conv_1"})
	require.Equal(t, "conv_1", store.TryLoad("u_1").ConversationID)

	store.TryClear("u_1")
	assert.Equal(t, SessionArchive{}, store.TryLoad("u_1"))

	// 重复清除同样安静
	store.TryClear("u_1")
}

func TestTrimPreview(t *testing.T) {
	short := "不长的预览"
	assert.Equal(t, short, trimPreview(short))

	long := make([]rune, 0, 50)
	for i := 0; i < 50; i++ {
		long = append(long, '长')
	}
	got := trimPreview(string(long))
	assert.Equal(t, 41, len([]rune(got)))
	assert.Equal(t, "…", string([]rune(got)[40:]))
}
