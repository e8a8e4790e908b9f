package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/normalizer"
	"github.com/lovecourt/backend/internal/repository"
)

// 判决失败时的兜底文案
const (
	errMissingSummary    = "缺少案情摘要"
	errJudgeUnavailable  = "召唤失败，请稍后再试"
	errUnparsableVerdict = "工作流返回不可解析"
)

// VerdictResult 是一次判决调用的完整结果（单次状态机：loading → success/error）
type VerdictResult struct {
	State        model.VerdictState `json:"state"`
	CaseID       string             `json:"case_id,omitempty"`
	Data         *model.Verdict     `json:"verdict,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// VerdictService 接收定稿摘要，召唤判决工作流并做结果映射
type VerdictService struct {
	mirror repository.SessionMirror
}

// NewVerdictService 构造判决服务
func NewVerdictService(mirror repository.SessionMirror) *VerdictService {
	return &VerdictService{mirror: mirror}
}

// Fetch 用给定摘要召唤一次判决
// 摘要为空立即失败（不发起网络调用）；映射失败是硬失败不触发重试——
// 歧义在数据而非传输。失败时会话保留摘要以便重试
func (s *VerdictService) Fetch(ctx context.Context, session *ChatSession, summaryText string) *VerdictResult {
	summaryText = strings.TrimSpace(summaryText)

	text, err := session.beginJudging(summaryText)
	if err != nil {
		// 摘要缺失或已有在途请求：不发起网络调用，也不动会话状态
		message := errMissingSummary
		if errors.Is(err, errSessionBusy) {
			message = errSessionBusy.Error()
		}
		return &VerdictResult{State: model.VerdictError, ErrorMessage: message}
	}

	result := s.fetchOnce(ctx, session.provider, session.userID, text)
	session.finishJudging(result)

	if result.State == model.VerdictSuccess {
		s.mirror.MarkCompleted(ctx, session.CloudSessionID())
	}
	return result
}

// fetchOnce 执行一次传输加映射
func (s *VerdictService) fetchOnce(ctx context.Context, provider dify.Provider, userID, summaryText string) *VerdictResult {
	raw, err := provider.Judge(ctx, summaryText, userID)
	if err != nil {
		slog.Error("判决请求失败", "user", userID, "error", err)
		return &VerdictResult{State: model.VerdictError, ErrorMessage: userMessage(err)}
	}

	mapped := normalizer.MapWorkflowResult(raw)
	if mapped == nil || mapped.Verdict == nil {
		slog.Error("判决结果不可解析", "user", userID)
		return &VerdictResult{State: model.VerdictError, ErrorMessage: errUnparsableVerdict}
	}

	return &VerdictResult{
		State:  model.VerdictSuccess,
		CaseID: mapped.CaseID,
		Data:   mapped.Verdict,
	}
}

// userMessage 优先透传服务端给出的提示，否则用通用重试文案
func userMessage(err error) string {
	switch e := err.(type) {
	case *dify.HTTPError:
		return e.Message
	case *dify.RelayError:
		return e.Error()
	default:
		return errJudgeUnavailable
	}
}
