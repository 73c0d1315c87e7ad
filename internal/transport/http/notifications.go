package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradyfit/backend/internal/middleware"
	"tradyfit/backend/internal/service"
)

// 注意：/notifications 使用页面脚本依赖的旧格式（直接返回数据，不包 {code,msg,data}）

// errorResponse 旧格式错误响应
type errorResponse struct {
	Error string `json:"error"`
}

type notificationsRequest struct {
	Type string `json:"type" form:"type"`
}

// NotificationsHandler 处理消息面板刷新请求
type NotificationsHandler struct {
	messages *service.MessageService
	log      *zap.Logger
}

// NewNotificationsHandler 创建通知处理器
func NewNotificationsHandler(messages *service.MessageService, log *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{messages: messages, log: log}
}

// List 返回一个分类的消息摘要和三个计数（POST /notifications）
//
// 请求可以是表单（type=unread）或 JSON（{"type":"unread"}）。
func (h *NotificationsHandler) List(c *gin.Context) {
	var req notificationsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidRequest})
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgMissingCategory})
		return
	}

	userID, _ := middleware.UserID(c)
	resp, err := h.messages.Notifications(userID, req.Type)
	if err != nil {
		status, msg := classifyError(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("failed to list notifications", zap.Uint("user_id", userID), zap.Error(err))
		}
		c.JSON(status, errorResponse{Error: msg})
		return
	}

	c.Set(middleware.CategoryKey, resp.Type)
	c.JSON(http.StatusOK, resp)
}
