package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api/response"
	"github.com/lovecourt/backend/internal/config"
	"github.com/lovecourt/backend/internal/infrastructure/dify"
)

// DiagnoseController 提供连通性探测和配置自检，给排障页使用
type DiagnoseController struct {
	cfg      *config.Config
	provider dify.Provider
}

// NewDiagnoseController 构造函数
func NewDiagnoseController(cfg *config.Config, provider dify.Provider) *DiagnoseController {
	return &DiagnoseController{cfg: cfg, provider: provider}
}

type PingResponse struct {
	OK    bool   `json:"ok"`
	Mock  bool   `json:"mock,omitempty"`
	Error string `json:"error,omitempty"`
}

// Ping 连通性测试
// @Summary 连通性测试
// @Description 发起一条轻量请求验证链路连通与鉴权
// @Tags Diagnose
// @Produce json
// @Success 200 {object} response.Response{data=controller.PingResponse}
// @Router /ping [get]
func (ctrl *DiagnoseController) Ping(c *gin.Context) {
	if ctrl.cfg.Mock.Enabled {
		response.Success(c, PingResponse{OK: true, Mock: true})
		return
	}
	if err := ctrl.provider.Ping(c.Request.Context()); err != nil {
		response.Success(c, PingResponse{OK: false, Error: err.Error()})
		return
	}
	response.Success(c, PingResponse{OK: true})
}

type DiagnoseResponse struct {
	ChatBasePresent    bool   `json:"chat_base_present"`
	ChatKeyPresent     bool   `json:"chat_key_present"`
	WorkflowPresent    bool   `json:"workflow_present"`
	WorkflowKeyPresent bool   `json:"workflow_key_present"`
	WorkflowIDHint     string `json:"workflow_id_hint,omitempty"`
	RelayPresent       bool   `json:"relay_present"`
	CloudOnly          bool   `json:"cloud_only"`
	Mock               bool   `json:"mock"`
}

// Diagnose 配置自检
// @Summary 配置自检
// @Description 上报各配置项是否存在，不泄漏取值
// @Tags Diagnose
// @Produce json
// @Success 200 {object} response.Response{data=controller.DiagnoseResponse}
// @Router /diagnose [get]
func (ctrl *DiagnoseController) Diagnose(c *gin.Context) {
	cfg := ctrl.cfg
	resp := DiagnoseResponse{
		ChatBasePresent:    cfg.Chat.BaseURL != "",
		ChatKeyPresent:     cfg.Chat.APIKey != "",
		WorkflowPresent:    cfg.Workflow.BaseURL != "",
		WorkflowKeyPresent: cfg.Workflow.APIKey != "",
		RelayPresent:       cfg.Relay.BaseURL != "",
		CloudOnly:          cfg.Relay.CloudOnly,
		Mock:               cfg.Mock.Enabled,
	}
	// 工作流 ID 只透出前几位
	if id := cfg.Workflow.WorkflowID; len(id) > 6 {
		resp.WorkflowIDHint = id[:6] + "…"
	} else if id != "" {
		resp.WorkflowIDHint = id
	}
	response.Success(c, resp)
}
