package httptransport

import (
	"errors"
	"net/http"

	"tradyfit/backend/internal/auth"
	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/storage"
)

type errorMapping struct {
	err    error
	status int
	msg    string
}

// 错误映射表（业务错误 -> HTTP 状态码和中文消息），按顺序匹配
var errorMappings = []errorMapping{
	// 资源不存在
	{storage.ErrMessageNotFound, http.StatusNotFound, "消息不存在"},
	{storage.ErrItemNotFound, http.StatusNotFound, "商品不存在"},
	{storage.ErrUserNotFound, http.StatusNotFound, "用户不存在"},

	// 冲突
	{storage.ErrEmailExists, http.StatusConflict, "该邮箱已被注册"},
	{storage.ErrUsernameExists, http.StatusConflict, "该用户名已被使用"},

	// 权限
	{service.ErrForbidden, http.StatusForbidden, "无权查看该消息"},
	{service.ErrNotReceiver, http.StatusForbidden, "只有收件人可以回复该消息"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, MsgInvalidCredentials},

	// 消息规则
	{service.ErrSelfMessage, http.StatusBadRequest, "不能给自己发送消息"},
	{service.ErrItemDeleted, http.StatusBadRequest, "该商品已被删除，无法回复"},
	{service.ErrSenderDeleted, http.StatusBadRequest, "发送者已注销，无法回复"},
	{service.ErrInvalidItem, http.StatusBadRequest, "商品名称长度需在 1 到 80 个字符之间"},
	{domain.ErrUnknownCategory, http.StatusBadRequest, "未知的消息分类"},

	// 参数校验
	{domain.ErrSubjectLength, http.StatusBadRequest, "主题长度需在 2 到 120 个字符之间"},
	{domain.ErrDescriptionTooLong, http.StatusBadRequest, "内容不能超过 500 个字符"},
	{domain.ErrInvalidEmail, http.StatusBadRequest, "邮箱格式无效"},
	{domain.ErrEmailTooLong, http.StatusBadRequest, "邮箱过长"},
	{domain.ErrPasswordTooShort, http.StatusBadRequest, "密码至少 8 个字符"},
	{domain.ErrPasswordTooLong, http.StatusBadRequest, "密码过长"},
	{domain.ErrUsernameTooShort, http.StatusBadRequest, "用户名过短"},
	{domain.ErrUsernameTooLong, http.StatusBadRequest, "用户名过长"},
	{domain.ErrInvalidUsername, http.StatusBadRequest, "用户名需以字母开头，只能包含字母、数字、点、下划线和连字符"},
}

// classifyError 返回错误对应的状态码和消息，未知错误视为服务器内部错误
func classifyError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.msg
		}
	}
	return http.StatusInternalServerError, MsgInternal
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	_, msg := classifyError(err)
	return msg
}

// 通用错误消息
const (
	MsgInvalidRequest     = "请求参数格式错误"
	MsgInvalidID          = "ID 格式无效"
	MsgMissingCategory    = "缺少消息分类参数 type"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgInternal           = "服务器内部错误，请稍后重试"
)
