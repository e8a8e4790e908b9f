package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/repository"
)

func newVerdictService() *VerdictService {
	return NewVerdictService(repository.NewSessionMirror(nil))
}

func TestFetchVerdictSuccess(t *testing.T) {
	provider := &fakeProvider{
		judgeRaw: json.RawMessage(`{"workflow_run_id":"run_1","data":{"outputs":{"text":{"案件回顾":"R","最终判决":"V"}}}}`),
	}
	s := newTestSession(t, provider)
	s.SetSummary(model.NewCaseSummary("双方因迟到冷战三天", nil))

	result := newVerdictService().Fetch(context.Background(), s, "")
	require.Equal(t, model.VerdictSuccess, result.State)
	assert.Equal(t, "run_1", result.CaseID)
	require.NotNil(t, result.Data)
	assert.Equal(t, "V", result.Data.ShareSummary)

	// 成功后会话收尾为 done，结果可重复取回
	snap := s.Snapshot()
	assert.Equal(t, model.StateDone, snap.State)
	assert.True(t, snap.IsInputDisabled)
	assert.Same(t, result, s.LastVerdict())
}

func TestFetchVerdictMissingSummary(t *testing.T) {
	provider := &fakeProvider{}
	s := newTestSession(t, provider)

	result := newVerdictService().Fetch(context.Background(), s, "  ")
	require.Equal(t, model.VerdictError, result.State)
	assert.Equal(t, "缺少案情摘要", result.ErrorMessage)
	// 不发起网络调用，也不动会话状态
	assert.Equal(t, model.StateIdle, s.Snapshot().State)
}

func TestFetchVerdictOverrideSummary(t *testing.T) {
	provider := &fakeProvider{
		judgeRaw: json.RawMessage(`{"task_id":"t1","outputs":{"text":"判决全文"}}`),
	}
	s := newTestSession(t, provider)

	// 没有定稿摘要，直接传入摘要文本也可以召唤
	result := newVerdictService().Fetch(context.Background(), s, "临时摘要")
	require.Equal(t, model.VerdictSuccess, result.State)
	assert.Equal(t, "t1", result.CaseID)
}

func TestFetchVerdictUnparsableResult(t *testing.T) {
	provider := &fakeProvider{judgeRaw: json.RawMessage(`{"data":{"outputs":{}}}`)}
	s := newTestSession(t, provider)
	s.SetSummary(model.NewCaseSummary("摘要", nil))

	result := newVerdictService().Fetch(context.Background(), s, "")
	require.Equal(t, model.VerdictError, result.State)
	assert.Equal(t, "工作流返回不可解析", result.ErrorMessage)

	// 失败后摘要保留，允许重试
	snap := s.Snapshot()
	assert.Equal(t, model.StateError, snap.State)
	assert.NotNil(t, snap.Summary)
}

func TestFetchVerdictTransportErrorMessages(t *testing.T) {
	t.Run("HTTP 错误透传用户文案", func(t *testing.T) {
		provider := &fakeProvider{judgeErr: &dify.HTTPError{Status: 500, Message: "服务繁忙，请稍后再试"}}
		s := newTestSession(t, provider)

		result := newVerdictService().Fetch(context.Background(), s, "摘要")
		require.Equal(t, model.VerdictError, result.State)
		assert.Equal(t, "服务繁忙，请稍后再试", result.ErrorMessage)
	})

	t.Run("中转错误带状态码", func(t *testing.T) {
		provider := &fakeProvider{judgeErr: &dify.RelayError{Status: 429, Message: "限频"}}
		s := newTestSession(t, provider)

		result := newVerdictService().Fetch(context.Background(), s, "摘要")
		assert.Equal(t, "(429) 限频", result.ErrorMessage)
	})

	t.Run("其它错误用通用文案", func(t *testing.T) {
		provider := &fakeProvider{judgeErr: context.DeadlineExceeded}
		s := newTestSession(t, provider)

		result := newVerdictService().Fetch(context.Background(), s, "摘要")
		assert.Equal(t, "召唤失败，请稍后再试", result.ErrorMessage)
	})
}

func TestFetchVerdictSessionBusy(t *testing.T) {
	provider := &fakeProvider{}
	s := newTestSession(t, provider)

	// 占用在途请求门闩后召唤应立即失败
	_, err := s.beginJudging("占位摘要")
	require.NoError(t, err)

	result := newVerdictService().Fetch(context.Background(), s, "摘要")
	require.Equal(t, model.VerdictError, result.State)
	assert.Equal(t, errSessionBusy.Error(), result.ErrorMessage)
}
