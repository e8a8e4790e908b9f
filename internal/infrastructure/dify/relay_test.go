package dify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecourt/backend/internal/config"
)

func TestRelayChatUnwrapsEnvelope(t *testing.T) {
	var path string
	var action string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var body struct {
			Action string `json:"action"`
		}
		decodeJSONBody(t, r, &body)
		action = body.Action
		w.Write([]byte(`{"ok":true,"data":{"answer":"我在听","conversation_id":"conv_9"}}`))
	}))
	defer srv.Close()

	c := NewRelayClient(config.RelayConfig{BaseURL: srv.URL}, nil)
	resp, err := c.Chat(context.Background(), ChatRequest{Query: "hi", User: "u_1"})
	require.NoError(t, err)
	assert.Equal(t, "我在听", resp.Answer)
	assert.Equal(t, "conv_9", resp.ConversationID)
	assert.Equal(t, "/"+relayChatFunc, path)
	assert.Equal(t, ActionChatMessages, action)
}

func TestRelayErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"status":429,"error":"限频"}`))
	}))
	defer srv.Close()

	notifier := &recordNotifier{}
	c := NewRelayClient(config.RelayConfig{BaseURL: srv.URL}, notifier)
	_, err := c.Judge(context.Background(), "摘要", "u_1")
	require.Error(t, err)

	relayErr, ok := err.(*RelayError)
	require.True(t, ok)
	assert.Equal(t, 429, relayErr.Status)
	assert.Equal(t, "(429) 限频", relayErr.Error())
	assert.Equal(t, "(429) 限频", notifier.last())
}

func TestRelayErrorWithoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	c := NewRelayClient(config.RelayConfig{BaseURL: srv.URL}, nil)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, "云函数请求失败", err.Error())
}

func TestRelayBaseURLMissing(t *testing.T) {
	c := NewRelayClient(config.RelayConfig{}, nil)
	_, err := c.Chat(context.Background(), ChatRequest{Query: "hi"})
	assert.ErrorIs(t, err, ErrBaseURLMissing)
}

func TestRelayJudgeGoesThroughJudgeFunc(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"ok":true,"data":{"workflow_run_id":"run_9"}}`))
	}))
	defer srv.Close()

	c := NewRelayClient(config.RelayConfig{BaseURL: srv.URL}, nil)
	raw, err := c.Judge(context.Background(), "摘要", "")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run_9")
	assert.Equal(t, "/"+relayJudgeFunc, path)
}
