package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_ReplyToken(t *testing.T) {
	manager := NewManager(testSecret, "tradyfit", time.Minute)

	token := manager.SignReplyToken(12, 3)
	assert.Len(t, token, 32)
	assert.Equal(t, token, manager.SignReplyToken(12, 3))

	assert.True(t, manager.VerifyReplyToken(12, 3, token))
	assert.False(t, manager.VerifyReplyToken(13, 3, token))
	assert.False(t, manager.VerifyReplyToken(12, 4, token))
	assert.False(t, manager.VerifyReplyToken(12, 3, ""))
	assert.False(t, manager.VerifyReplyToken(12, 3, "zz"))
	assert.False(t, manager.VerifyReplyToken(12, 3, token[:30]))

	other := NewManager("fedcba9876543210fedcba9876543210", "tradyfit", time.Minute)
	assert.False(t, other.VerifyReplyToken(12, 3, token))
}
