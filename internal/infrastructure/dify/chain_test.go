package dify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecourt/backend/internal/config"
)

// stubProvider 是可编程的假后端
type stubProvider struct {
	name    string
	chatFn  func() (*ChatResponse, error)
	judgeFn func() (json.RawMessage, error)
	pingErr error
}

func (s *stubProvider) Chat(context.Context, ChatRequest) (*ChatResponse, error) {
	return s.chatFn()
}

func (s *stubProvider) Judge(context.Context, string, string) (json.RawMessage, error) {
	return s.judgeFn()
}

func (s *stubProvider) Ping(context.Context) error { return s.pingErr }
func (s *stubProvider) Name() string               { return s.name }

func failingStub(name string) *stubProvider {
	err := errors.New(name + " 失败")
	return &stubProvider{
		name:    name,
		chatFn:  func() (*ChatResponse, error) { return nil, err },
		judgeFn: func() (json.RawMessage, error) { return nil, err },
		pingErr: err,
	}
}

func okStub(name, answer string) *stubProvider {
	return &stubProvider{
		name:    name,
		chatFn:  func() (*ChatResponse, error) { return &ChatResponse{Answer: answer}, nil },
		judgeFn: func() (json.RawMessage, error) { return json.RawMessage(`{}`), nil },
	}
}

func TestChainFallsBackToNextCandidate(t *testing.T) {
	chain := NewChainOf(failingStub("relay"), okStub("direct", "直连回答"))

	resp, err := chain.Chat(context.Background(), ChatRequest{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "直连回答", resp.Answer)
}

func TestChainReturnsLastError(t *testing.T) {
	chain := NewChainOf(failingStub("relay"), failingStub("direct"))

	_, err := chain.Judge(context.Background(), "摘要", "u_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct")
}

func TestChainPingAnyCandidate(t *testing.T) {
	chain := NewChainOf(failingStub("relay"), okStub("direct", ""))
	assert.NoError(t, chain.Ping(context.Background()))
}

func TestNewChainAssembly(t *testing.T) {
	names := func(c *Chain) []string {
		var out []string
		for _, p := range c.candidates {
			out = append(out, p.Name())
		}
		return out
	}

	t.Run("Mock 模式只有 Mock", func(t *testing.T) {
		cfg := &config.Config{Mock: config.MockConfig{Enabled: true}}
		assert.Equal(t, []string{"mock"}, names(NewChain(cfg, nil)))
	})

	t.Run("无中转走直连", func(t *testing.T) {
		cfg := &config.Config{}
		assert.Equal(t, []string{"direct"}, names(NewChain(cfg, nil)))
	})

	t.Run("配置中转后中转优先", func(t *testing.T) {
		cfg := &config.Config{Relay: config.RelayConfig{BaseURL: "https://relay.example.com"}}
		assert.Equal(t, []string{"relay", "direct"}, names(NewChain(cfg, nil)))
	})

	t.Run("cloud_only 截断直连候选", func(t *testing.T) {
		cfg := &config.Config{Relay: config.RelayConfig{BaseURL: "https://relay.example.com", CloudOnly: true}}
		assert.Equal(t, []string{"relay"}, names(NewChain(cfg, nil)))
	})
}

func TestChainResetForwardsToResettable(t *testing.T) {
	mock := NewMockClient()
	chain := NewChainOf(mock, okStub("direct", ""))

	for i := 0; i < 3; i++ {
		_, err := chain.Chat(context.Background(), ChatRequest{Query: "hi"})
		require.NoError(t, err)
	}
	chain.ResetRounds()

	resp, err := mock.Chat(context.Background(), ChatRequest{Query: "hi"})
	require.NoError(t, err)
	assert.False(t, resp.Metadata.SummaryReady)
}
