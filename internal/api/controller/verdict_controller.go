package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api/response"
	"github.com/lovecourt/backend/internal/service"
)

type VerdictController struct {
	verdicts *service.VerdictService
	sessions *service.SessionManager
	identity *service.IdentityService
}

// NewVerdictController 构造函数
func NewVerdictController(verdicts *service.VerdictService, sessions *service.SessionManager, identity *service.IdentityService) *VerdictController {
	return &VerdictController{verdicts: verdicts, sessions: sessions, identity: identity}
}

func (ctrl *VerdictController) resolveUserID(c *gin.Context) string {
	if userID := c.GetString("userID"); userID != "" {
		return userID
	}
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID
	}
	return ctrl.identity.Ensure(c.Request.Context(), "")
}

type FetchVerdictRequest struct {
	// Summary 可省略，省略时使用会话里的定稿摘要
	Summary string `json:"summary"`
}

type VerdictResponse struct {
	UserID string                 `json:"user_id"`
	Result *service.VerdictResult `json:"result"`
}

// Fetch 召唤判决
// @Summary 召唤判决
// @Description 把定稿的案情摘要提交给判决工作流并返回判决书
// @Tags Verdict
// @Accept json
// @Produce json
// @Param request body FetchVerdictRequest true "摘要（可省略）"
// @Success 200 {object} response.Response{data=controller.VerdictResponse}
// @Router /verdict [post]
func (ctrl *VerdictController) Fetch(c *gin.Context) {
	var req FetchVerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)

	result := ctrl.verdicts.Fetch(c.Request.Context(), session, req.Summary)
	response.Success(c, VerdictResponse{UserID: userID, Result: result})
}

// Last 查看最近一次判决结果
// @Summary 获取最近判决
// @Tags Verdict
// @Produce json
// @Success 200 {object} response.Response{data=controller.VerdictResponse}
// @Router /verdict [get]
func (ctrl *VerdictController) Last(c *gin.Context) {
	userID := ctrl.resolveUserID(c)
	session := ctrl.sessions.Get(userID)
	response.Success(c, VerdictResponse{UserID: userID, Result: session.LastVerdict()})
}
