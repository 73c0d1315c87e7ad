package jwt

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// 回复令牌保留的签名字节数，十六进制后 32 个字符，放得进邮箱地址的本地部分
const replyTokenBytes = 16

// SignReplyToken 为 (消息, 接收者) 生成回复地址中使用的令牌。
func (m *Manager) SignReplyToken(messageID, receiverID uint) string {
	sig, err := jwt.SigningMethodHS256.Sign(replySigningString(messageID, receiverID), m.secret)
	if err != nil {
		// HS256 只在密钥类型错误时失败，secret 始终是 []byte
		panic(fmt.Sprintf("jwt: sign reply token: %v", err))
	}
	return hex.EncodeToString(sig[:replyTokenBytes])
}

// VerifyReplyToken 校验回复令牌，比较在常量时间内完成。
func (m *Manager) VerifyReplyToken(messageID, receiverID uint, token string) bool {
	got, err := hex.DecodeString(token)
	if err != nil || len(got) != replyTokenBytes {
		return false
	}
	want, err := hex.DecodeString(m.SignReplyToken(messageID, receiverID))
	if err != nil {
		return false
	}
	return hmac.Equal(got, want)
}

func replySigningString(messageID, receiverID uint) string {
	return fmt.Sprintf("reply:%d:%d", messageID, receiverID)
}
