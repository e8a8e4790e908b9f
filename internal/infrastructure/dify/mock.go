package dify

import (
	"context"
	"encoding/json"
	"sync"
)

// Mock 模式的固定话术：前两轮追问细节，第三轮起返回整理完毕的摘要
const (
	mockChatAnswer = "我在听。能再说说当时的场景吗？对方说了什么、你又是怎么回应的？"

	mockSummaryAnswer = "【我已整理完毕，以下是你的情感陈述摘要】\n" +
		"你们因为一次迟到引发争吵，对方事后没有道歉，你感到被忽视。\n" +
		"双方冷战三天，期间你主动发过消息但未获回应。\n" +
		"关键词：迟到,冷战,忽视"
)

// mockVerdictRaw 是判决工作流的固定返回，形态与真实工作流一致
var mockVerdictRaw = json.RawMessage(`{
  "workflow_run_id": "mock_run_001",
  "data": {
    "id": "mock_case_001",
    "outputs": {
      "text": {
        "案件回顾": "原告陈述：对方迟到且拒不道歉，引发三天冷战。",
        "情感剖析": "被告存在回避型沟通倾向，原告的失落情绪未被接住。",
        "温柔裁定": "判处被告主动发起一次不少于三十分钟的认真对话。",
        "最终判决": "本庭宣判《冷战无限期搁置案》：双方各退一步，即日执行。"
      }
    }
  }
}`)

// MockClient 用固定话术代替一切网络调用
// 轮次计数是会话级状态：每个会话持有独立实例，reset 时一并清零
type MockClient struct {
	mu    sync.Mutex
	round int
}

// NewMockClient 构造 Mock 客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Name() string { return "mock" }

// Chat 返回固定话术，第三轮起给出摘要
func (c *MockClient) Chat(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	c.mu.Lock()
	c.round++
	round := c.round
	c.mu.Unlock()

	if round >= 3 {
		return &ChatResponse{
			Answer:         mockSummaryAnswer,
			ConversationID: "mock_conversation",
			Metadata:       &ChatMetadata{Round: round, SummaryReady: true},
		}, nil
	}
	return &ChatResponse{
		Answer:         mockChatAnswer,
		ConversationID: "mock_conversation",
		Metadata:       &ChatMetadata{Round: round},
	}, nil
}

// Judge 返回固定判决
func (c *MockClient) Judge(_ context.Context, _, _ string) (json.RawMessage, error) {
	return mockVerdictRaw, nil
}

// Ping 恒成功
func (c *MockClient) Ping(_ context.Context) error {
	return nil
}

// ResetRounds 清零轮次计数，随会话 reset 执行
func (c *MockClient) ResetRounds() {
	c.mu.Lock()
	c.round = 0
	c.mu.Unlock()
}

var _ Resettable = (*MockClient)(nil)

// 保证三个实现都满足 Provider
var (
	_ Provider = (*MockClient)(nil)
	_ Provider = (*DirectClient)(nil)
	_ Provider = (*RelayClient)(nil)
)
