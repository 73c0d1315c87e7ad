package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/middleware"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/urls"
)

// ReplyAddresser 生成邮件回复地址，由 smtp.Backend 实现。
type ReplyAddresser interface {
	ReplyAddress(messageID, receiverID uint) string
}

// MessageHandler 处理站内消息请求
type MessageHandler struct {
	messages *service.MessageService
	items    *service.ItemService
	replies  ReplyAddresser
	log      *zap.Logger
}

// NewMessageHandler 创建消息处理器，replies 为 nil 时不下发邮件回复地址
func NewMessageHandler(messages *service.MessageService, items *service.ItemService, replies ReplyAddresser, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		items:    items,
		replies:  replies,
		log:      log,
	}
}

// messageResponse 消息详情，附带详情页和回复地址
type messageResponse struct {
	*domain.Message
	URL        string `json:"url"`
	ReplyURL   string `json:"replyUrl,omitempty"`
	ReplyEmail string `json:"replyEmail,omitempty"`
}

// 只有接收者能拿到回复链接和带令牌的回复邮箱
func (h *MessageHandler) toMessageResponse(msg *domain.Message, userID uint) messageResponse {
	resp := messageResponse{
		Message: msg,
		URL:     urls.Path(urls.MessageDetail, msg.ID),
	}
	if msg.IsReceiver(userID) && msg.SenderID != nil && msg.ItemID != nil {
		resp.ReplyURL = resp.URL
		if h.replies != nil {
			resp.ReplyEmail = h.replies.ReplyAddress(msg.ID, userID)
		}
	}
	return resp
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, MsgInvalidID)
		return 0, false
	}
	return uint(id), true
}

// Create 给商品主人发送消息（POST /msg/create/:id）
func (h *MessageHandler) Create(c *gin.Context) {
	itemID, ok := parseID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	var req service.ComposeInput
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	msg, err := h.messages.Send(userID, itemID, req)
	if err != nil {
		h.respondError(c, "failed to send message", err)
		return
	}

	CreatedWithMsg(c, "消息已发送", h.toMessageResponse(msg, userID))
}

// Get 查看消息详情（GET /msg/:id），收件人查看时标记已读
func (h *MessageHandler) Get(c *gin.Context) {
	messageID, ok := parseID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	msg, err := h.messages.Get(userID, messageID)
	if err != nil {
		h.respondError(c, "failed to get message", err)
		return
	}

	Success(c, h.toMessageResponse(msg, userID))
}

// Reply 回复消息（POST /msg/:id）
func (h *MessageHandler) Reply(c *gin.Context) {
	messageID, ok := parseID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	var req service.ComposeInput
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	msg, err := h.messages.Reply(userID, messageID, req)
	if err != nil {
		h.respondError(c, "failed to reply message", err)
		return
	}

	CreatedWithMsg(c, "回复已发送", h.toMessageResponse(msg, userID))
}

// CreateItem 发布商品（POST /items）
func (h *MessageHandler) CreateItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.CreateItemInput
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	item, err := h.items.Create(userID, req)
	if err != nil {
		h.respondError(c, "failed to create item", err)
		return
	}

	CreatedWithMsg(c, "商品已发布", gin.H{
		"item":       item,
		"messageUrl": urls.Path(urls.MessageCreate, item.ID),
	})
}

func (h *MessageHandler) respondError(c *gin.Context, logMsg string, err error) {
	status, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(logMsg, zap.Error(err))
	}
	Error(c, status, msg)
}
