package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradyfit/backend/internal/auth"
	"tradyfit/backend/internal/middleware"
)

// AuthHandler 处理认证相关的 HTTP 请求
type AuthHandler struct {
	authService  *auth.Service
	secureCookie bool
	log          *zap.Logger
}

// NewAuthHandler 创建新的认证处理器实例
func NewAuthHandler(authService *auth.Service, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		log:          log,
	}
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		h.respondError(c, "failed to register user", err)
		return
	}

	h.log.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
	)

	CreatedWithMsg(c, "注册成功", user)
}

// Login 处理用户登录请求，令牌同时写入 access_token cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginInput
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.authService.Login(req)
	if err != nil {
		h.respondError(c, "failed to login", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, int(result.ExpiresIn), "/", "", h.secureCookie, true)

	h.log.Info("user logged in", zap.Uint("user_id", result.User.ID))
	Success(c, result)
}

func (h *AuthHandler) respondError(c *gin.Context, logMsg string, err error) {
	status, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(logMsg, zap.Error(err))
	}
	Error(c, status, msg)
}
