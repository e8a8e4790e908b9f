package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api/response"
	"github.com/lovecourt/backend/internal/model"
	"github.com/lovecourt/backend/internal/service"
)

type ChatController struct {
	sessions *service.SessionManager
	identity *service.IdentityService
}

// NewChatController 构造函数
func NewChatController(sessions *service.SessionManager, identity *service.IdentityService) *ChatController {
	return &ChatController{sessions: sessions, identity: identity}
}

// resolveUserID 解析本次请求的用户标识：
// 鉴权注入 > X-User-ID 请求头 > 新签发的匿名 ID（随响应返回，端上须存下来复用）
func (ctrl *ChatController) resolveUserID(c *gin.Context) string {
	if userID := c.GetString("userID"); userID != "" {
		return userID
	}
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID
	}
	return ctrl.identity.Ensure(c.Request.Context(), "")
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type SessionResponse struct {
	UserID   string           `json:"user_id"`
	Session  service.Snapshot `json:"session"`
	ErrorMsg string           `json:"error_message,omitempty"`
}

// Send 发送一轮陈述
// @Summary 发送陈述消息
// @Description 把用户的一轮陈述转发给 AI 书记员，回答中检测到摘要即进入待判决
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body SendMessageRequest true "陈述内容"
// @Success 200 {object} response.Response{data=controller.SessionResponse}
// @Router /chat/messages [post]
func (ctrl *ChatController) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)

	snap, err := session.SendMessage(c.Request.Context(), req.Text)
	resp := SessionResponse{UserID: userID, Session: snap}
	if err != nil {
		// 状态机已进入 error，错误文案随响应带回，HTTP 层面仍是 200
		slog.Warn("本轮陈述失败", "user", userID, "error", err)
		resp.ErrorMsg = err.Error()
	}
	response.Success(c, resp)
}

// Session 查看当前会话
// @Summary 获取会话视图
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Response{data=controller.SessionResponse}
// @Router /chat/session [get]
func (ctrl *ChatController) Session(c *gin.Context) {
	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)
	response.Success(c, SessionResponse{UserID: userID, Session: session.Snapshot()})
}

type SetSummaryRequest struct {
	Text     string   `json:"text" binding:"required"`
	Keywords []string `json:"keywords"`
}

// SetSummary 人工修正摘要
// @Summary 修正案情摘要
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body SetSummaryRequest true "摘要内容"
// @Success 200 {object} response.Response{data=controller.SessionResponse}
// @Router /chat/summary [post]
func (ctrl *ChatController) SetSummary(c *gin.Context) {
	var req SetSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)
	session.SetSummary(model.NewCaseSummary(req.Text, req.Keywords))
	response.Success(c, SessionResponse{UserID: userID, Session: session.Snapshot()})
}

// Reset 清空会话
// @Summary 重置会话
// @Description 清空历史、摘要、会话令牌和本地存档，回到 idle
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Response{data=controller.SessionResponse}
// @Router /chat/reset [post]
func (ctrl *ChatController) Reset(c *gin.Context) {
	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)
	session.Reset()
	response.Success(c, SessionResponse{UserID: userID, Session: session.Snapshot()})
}
