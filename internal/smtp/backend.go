package smtp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/storage"
)

// 单封回复邮件的最大字节数
const maxMessageBytes = 1 << 20

// 回复地址的本地部分前缀，完整格式为 reply+<消息ID>.<令牌>@<域名>
const replyPrefix = "reply+"

var (
	errNotReplyAddress = errors.New("not a reply address")
	errInvalidID       = errors.New("invalid message id")
	errMissingToken    = errors.New("missing reply token")
)

// Replier 以某个用户的身份回复消息，由 service.MessageService 实现。
type Replier interface {
	Reply(userID, messageID uint, input service.ComposeInput) (*domain.Message, error)
}

// UserLookup 按邮箱查找用户
type UserLookup interface {
	GetUserByEmail(email string) (*domain.User, error)
}

// MessageLookup 按 ID 读取消息，用于校验回复地址。
type MessageLookup interface {
	GetMessage(id uint) (*domain.Message, error)
}

// ReplySigner 签发和校验回复地址中的令牌，由 jwt.Manager 实现。
type ReplySigner interface {
	SignReplyToken(messageID, receiverID uint) string
	VerifyReplyToken(messageID, receiverID uint, token string) bool
}

// MessageRecorder 记录网关投递的消息，由 monitoring.Metrics 实现。
type MessageRecorder interface {
	RecordMessageSent(source string)
}

// Backend 实现 go-smtp 的 Backend 接口。
//
// 这是一个只接收回复的 SMTP 网关：
// 只接受发往 reply+<消息ID>.<令牌>@<域名> 的邮件，
// 令牌绑定消息和接收者，只在消息详情中下发给接收者；
// 信封发件人还必须是原消息接收者的注册邮箱，
// 邮件的主题和正文作为对原消息的回复保存。
// 其他收件地址一律返回 550，不做任何中继。
type Backend struct {
	replies  Replier
	users    UserLookup
	messages MessageLookup
	signer   ReplySigner
	domain   string
	limiter  *ConnectionLimiter
	metrics  MessageRecorder
	log      *zap.Logger
}

// NewBackend 创建 SMTP Backend。
func NewBackend(replies Replier, users UserLookup, messages MessageLookup, signer ReplySigner, replyDomain string, limiter *ConnectionLimiter, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		replies:  replies,
		users:    users,
		messages: messages,
		signer:   signer,
		domain:   strings.ToLower(strings.TrimSpace(replyDomain)),
		limiter:  limiter,
		log:      log,
	}
}

// SetMetrics 设置投递计数
func (b *Backend) SetMetrics(metrics MessageRecorder) {
	b.metrics = metrics
}

// ReplyAddress 返回某条消息给指定接收者使用的回复地址。
func (b *Backend) ReplyAddress(messageID, receiverID uint) string {
	return fmt.Sprintf("%s%d.%s@%s", replyPrefix, messageID, b.signer.SignReplyToken(messageID, receiverID), b.domain)
}

// NewServer 创建绑定到 addr 的 SMTP 服务器。
func NewServer(backend *Backend, addr string) *gosmtp.Server {
	s := gosmtp.NewServer(backend)
	s.Addr = addr
	s.Domain = backend.domain
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.MaxMessageBytes = maxMessageBytes
	s.MaxRecipients = 1
	return s
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	if b.limiter != nil && !b.limiter.Acquire() {
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 7, 0},
			Message:      "too many connections, try again later",
		}
	}
	return &session{backend: b}, nil
}

type session struct {
	backend     *Backend
	fromAddress string
	messageID   uint
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, _ *gosmtp.MailOptions) error {
	s.fromAddress = normalizeAddress(from)
	return nil
}

// Rcpt 处理 RCPT 命令，只接受本网关域名下的回复地址。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	local, host, ok := strings.Cut(addr, "@")
	if !ok || local == "" || host == "" {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	if host != s.backend.domain {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "relay access denied",
		}
	}

	id, token, err := parseReplyLocal(local)
	if err != nil {
		return unknownReplyAddress()
	}

	msg, err := s.backend.messages.GetMessage(id)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			return unknownReplyAddress()
		}
		return fmt.Errorf("lookup message: %w", err)
	}
	if msg.ReceiverID == nil || !s.backend.signer.VerifyReplyToken(id, *msg.ReceiverID, token) {
		s.backend.log.Warn("reply address rejected",
			zap.Uint("message_id", id),
			zap.String("from", s.fromAddress),
		)
		return unknownReplyAddress()
	}

	s.messageID = id
	return nil
}

// 令牌错误和消息不存在返回同样的应答，不暴露消息是否存在
func unknownReplyAddress() error {
	return &gosmtp.SMTPError{
		Code:         550,
		EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
		Message:      "unknown reply address",
	}
}

// Data 解析邮件并作为回复投递。
func (s *session) Data(r io.Reader) error {
	if s.messageID == 0 {
		return &gosmtp.SMTPError{
			Code:         503,
			EnhancedCode: gosmtp.EnhancedCode{5, 5, 1},
			Message:      "no valid recipient",
		}
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxMessageBytes))
	if err != nil {
		return err
	}

	parsed, err := ParseEmail(raw)
	if err != nil {
		return &gosmtp.SMTPError{
			Code:         554,
			EnhancedCode: gosmtp.EnhancedCode{5, 6, 0},
			Message:      "malformed message",
		}
	}

	user, err := s.backend.users.GetUserByEmail(s.fromAddress)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return &gosmtp.SMTPError{
				Code:         550,
				EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
				Message:      "sender is not a registered user",
			}
		}
		return fmt.Errorf("lookup sender: %w", err)
	}

	input := service.ComposeInput{
		Subject:     truncateRunes(parsed.Subject, domain.MaxSubjectLength),
		Description: truncateRunes(stripQuoted(parsed.Text), domain.MaxDescriptionLength),
	}

	message, err := s.backend.replies.Reply(user.ID, s.messageID, input)
	if err != nil {
		s.backend.log.Info("reply by email rejected",
			zap.Uint("message_id", s.messageID),
			zap.String("from", s.fromAddress),
			zap.Error(err),
		)
		return replyError(err)
	}

	if s.backend.metrics != nil {
		s.backend.metrics.RecordMessageSent("smtp")
	}
	s.backend.log.Info("reply by email delivered",
		zap.Uint("message_id", message.ID),
		zap.Uint("in_reply_to", s.messageID),
		zap.Uint("sender_id", user.ID),
	)
	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.messageID = 0
}

// Logout 会话结束。
func (s *session) Logout() error {
	if s.backend.limiter != nil {
		s.backend.limiter.Release()
	}
	return nil
}

func replyError(err error) error {
	switch {
	case errors.Is(err, storage.ErrMessageNotFound):
		return &gosmtp.SMTPError{Code: 550, EnhancedCode: gosmtp.EnhancedCode{5, 1, 1}, Message: "message not found"}
	case errors.Is(err, service.ErrNotReceiver), errors.Is(err, service.ErrSelfMessage):
		return &gosmtp.SMTPError{Code: 550, EnhancedCode: gosmtp.EnhancedCode{5, 7, 1}, Message: "sender may not reply to this message"}
	case errors.Is(err, service.ErrItemDeleted), errors.Is(err, service.ErrSenderDeleted):
		return &gosmtp.SMTPError{Code: 550, EnhancedCode: gosmtp.EnhancedCode{5, 1, 6}, Message: err.Error()}
	case errors.Is(err, domain.ErrSubjectLength), errors.Is(err, domain.ErrDescriptionTooLong):
		return &gosmtp.SMTPError{Code: 554, EnhancedCode: gosmtp.EnhancedCode{5, 6, 0}, Message: err.Error()}
	default:
		return err
	}
}

func parseReplyLocal(local string) (uint, string, error) {
	rest, ok := strings.CutPrefix(local, replyPrefix)
	if !ok {
		return 0, "", errNotReplyAddress
	}
	rawID, token, ok := strings.Cut(rest, ".")
	if !ok || token == "" {
		return 0, "", errMissingToken
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return 0, "", errInvalidID
	}
	return uint(id), token, nil
}

// stripQuoted 去掉邮件客户端引用的原文（以 > 开头的行及其前面的 "On ... wrote:" 行）。
func stripQuoted(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, line)
	}
	for len(kept) > 0 {
		last := strings.TrimSpace(kept[len(kept)-1])
		if last == "" || (strings.HasPrefix(last, "On ") && strings.HasSuffix(last, "wrote:")) {
			kept = kept[:len(kept)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}

func decodeHeader(value string) string {
	if value == "" {
		return value
	}
	decoder := &mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
