package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api/response"
	"github.com/lovecourt/backend/internal/service"
)

// AuthController 处理用户认证
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController 构造函数
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户，密码加密存储
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册参数"
// @Success 200 {object} response.Response "Code=0 成功"
// @Failure 400 {object} response.Response "参数错误"
// @Router /auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Register params invalid", "err", err)
		response.Error(c, http.StatusBadRequest, "参数校验失败: "+err.Error())
		return
	}

	if err := ctrl.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		slog.Error("注册失败", "error", err)
		response.Error(c, http.StatusInternalServerError, "注册失败")
		return
	}
	response.Success(c, nil)
}

// Login 用户登录
// @Summary 用户登录
// @Description 校验邮箱和密码，返回 JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录参数"
// @Success 200 {object} response.Response{data=controller.LoginResponse}
// @Router /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "参数校验失败: "+err.Error())
		return
	}

	token, userID, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}
	response.Success(c, LoginResponse{Token: token, UserID: userID})
}

// Anonymous 匿名登录
// @Summary 匿名登录
// @Description 签发匿名身份，身份解析失败也不会阻塞后续对话
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response{data=controller.LoginResponse}
// @Router /auth/anonymous [post]
func (ctrl *AuthController) Anonymous(c *gin.Context) {
	token, userID, err := ctrl.authService.AnonymousLogin(c.Request.Context())
	if err != nil {
		slog.Error("匿名登录失败", "error", err)
		response.Error(c, http.StatusInternalServerError, "匿名登录失败")
		return
	}
	response.Success(c, LoginResponse{Token: token, UserID: userID})
}
