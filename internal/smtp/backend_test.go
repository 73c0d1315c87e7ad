package smtp

import (
	"fmt"
	"strings"
	"testing"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type gatewayFixture struct {
	store    *memory.Store
	backend  *Backend
	signer   *jwt.Manager
	seller   *domain.User
	buyer    *domain.User
	original *domain.Message
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	store := memory.NewStore()

	seller := &domain.User{Email: "seller@example.com", Username: "seller"}
	buyer := &domain.User{Email: "buyer@example.com", Username: "buyer"}
	require.NoError(t, store.CreateUser(seller))
	require.NoError(t, store.CreateUser(buyer))

	item, err := service.NewItemService(store).Create(seller.ID, service.CreateItemInput{Name: "road bike"})
	require.NoError(t, err)

	messages := service.NewMessageService(store, nil)
	original, err := messages.Send(buyer.ID, item.ID, service.ComposeInput{Subject: "Still available?"})
	require.NoError(t, err)

	signer := jwt.NewManager(testSecret, "tradyfit", time.Minute)
	return &gatewayFixture{
		store:    store,
		backend:  NewBackend(messages, store, store, signer, "Reply.Tradyfit.Local", NewConnectionLimiter(2, 100), nil),
		signer:   signer,
		seller:   seller,
		buyer:    buyer,
		original: original,
	}
}

// replyTo 返回卖家（原消息接收者）拿到的回复地址
func (f *gatewayFixture) replyTo() string {
	return f.backend.ReplyAddress(f.original.ID, f.seller.ID)
}

func (f *gatewayFixture) open(t *testing.T) gosmtp.Session {
	t.Helper()
	s, err := f.backend.NewSession(nil)
	require.NoError(t, err)
	return s
}

func smtpCode(t *testing.T, err error) int {
	t.Helper()
	var smtpErr *gosmtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	return smtpErr.Code
}

func TestSession_ReplyDelivered(t *testing.T) {
	f := newGatewayFixture(t)
	s := f.open(t)
	defer s.Logout()

	require.NoError(t, s.Mail("<Seller@Example.com>", nil))
	require.NoError(t, s.Rcpt(f.replyTo(), nil))

	raw := "From: seller@example.com\r\n" +
		"Subject: Re: Still available?\r\n" +
		"\r\n" +
		"Yes, come by tomorrow.\r\n" +
		"\r\n" +
		"On Mon, buyer wrote:\r\n" +
		"> Still available?\r\n"
	require.NoError(t, s.Data(strings.NewReader(raw)))

	sent, err := f.store.ListMessages(f.buyer.ID, domain.CategoryReceived)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Re: Still available?", sent[0].Subject)
	assert.Equal(t, "Yes, come by tomorrow.", sent[0].Description)
	assert.Equal(t, f.seller.ID, *sent[0].SenderID)
	assert.Equal(t, *f.original.ItemID, *sent[0].ItemID)
}

func TestSession_Rcpt(t *testing.T) {
	f := newGatewayFixture(t)
	s := f.open(t)
	defer s.Logout()

	assert.Equal(t, 501, smtpCode(t, s.Rcpt("no-at-sign", nil)))
	assert.Equal(t, 550, smtpCode(t, s.Rcpt("reply+1@elsewhere.com", nil)))
	assert.Equal(t, 550, smtpCode(t, s.Rcpt("someone@reply.tradyfit.local", nil)))
	assert.Equal(t, 550, smtpCode(t, s.Rcpt("reply+0@reply.tradyfit.local", nil)))
	assert.Equal(t, 550, smtpCode(t, s.Rcpt("reply+abc@reply.tradyfit.local", nil)))
	assert.NoError(t, s.Rcpt("<"+strings.ToUpper(f.replyTo())+">", nil))
}

func TestSession_RcptRequiresToken(t *testing.T) {
	f := newGatewayFixture(t)
	s := f.open(t)
	defer s.Logout()

	require.NoError(t, s.Mail("seller@example.com", nil))

	id := f.original.ID
	forged := []string{
		fmt.Sprintf("reply+%d@reply.tradyfit.local", id),
		fmt.Sprintf("reply+%d.@reply.tradyfit.local", id),
		fmt.Sprintf("reply+%d.%s@reply.tradyfit.local", id, strings.Repeat("0", 32)),
		// 令牌签给了别的接收者
		fmt.Sprintf("reply+%d.%s@reply.tradyfit.local", id, f.signer.SignReplyToken(id, f.buyer.ID)),
		// 令牌属于另一条消息
		fmt.Sprintf("reply+%d.%s@reply.tradyfit.local", id, f.signer.SignReplyToken(id+1, f.seller.ID)),
		fmt.Sprintf("reply+999.%s@reply.tradyfit.local", f.signer.SignReplyToken(999, f.seller.ID)),
	}
	for _, addr := range forged {
		assert.Equal(t, 550, smtpCode(t, s.Rcpt(addr, nil)), addr)
	}
	assert.Equal(t, 503, smtpCode(t, s.Data(strings.NewReader("Subject: pay via wire\r\n\r\nx"))))

	received, err := f.store.ListMessages(f.buyer.ID, domain.CategoryReceived)
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestSession_DataRejections(t *testing.T) {
	body := "Subject: Re: hi\r\n\r\nok\r\n"

	t.Run("no recipient", func(t *testing.T) {
		f := newGatewayFixture(t)
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("seller@example.com", nil))
		assert.Equal(t, 503, smtpCode(t, s.Data(strings.NewReader(body))))
	})

	t.Run("unknown sender", func(t *testing.T) {
		f := newGatewayFixture(t)
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("stranger@example.com", nil))
		require.NoError(t, s.Rcpt(f.replyTo(), nil))
		assert.Equal(t, 550, smtpCode(t, s.Data(strings.NewReader(body))))
	})

	t.Run("sender is not the receiver", func(t *testing.T) {
		f := newGatewayFixture(t)
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("buyer@example.com", nil))
		require.NoError(t, s.Rcpt(f.replyTo(), nil))
		assert.Equal(t, 550, smtpCode(t, s.Data(strings.NewReader(body))))
	})

	t.Run("original sender deleted", func(t *testing.T) {
		f := newGatewayFixture(t)
		require.NoError(t, f.store.DeleteUser(f.buyer.ID))
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("seller@example.com", nil))
		require.NoError(t, s.Rcpt(f.replyTo(), nil))
		assert.Equal(t, 550, smtpCode(t, s.Data(strings.NewReader(body))))
	})

	t.Run("item deleted", func(t *testing.T) {
		f := newGatewayFixture(t)
		require.NoError(t, f.store.DeleteItem(*f.original.ItemID))
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("seller@example.com", nil))
		require.NoError(t, s.Rcpt(f.replyTo(), nil))
		assert.Equal(t, 550, smtpCode(t, s.Data(strings.NewReader(body))))
	})

	t.Run("empty subject", func(t *testing.T) {
		f := newGatewayFixture(t)
		s := f.open(t)
		defer s.Logout()
		require.NoError(t, s.Mail("seller@example.com", nil))
		require.NoError(t, s.Rcpt(f.replyTo(), nil))
		assert.Equal(t, 554, smtpCode(t, s.Data(strings.NewReader("\r\nno subject\r\n"))))
	})
}

func TestSession_Reset(t *testing.T) {
	f := newGatewayFixture(t)
	s := f.open(t)
	defer s.Logout()

	require.NoError(t, s.Mail("seller@example.com", nil))
	require.NoError(t, s.Rcpt(f.replyTo(), nil))
	s.Reset()
	assert.Equal(t, 503, smtpCode(t, s.Data(strings.NewReader("Subject: hi\r\n\r\nx"))))
}

func TestBackend_ConnectionLimit(t *testing.T) {
	f := newGatewayFixture(t)

	first := f.open(t)
	second := f.open(t)

	_, err := f.backend.NewSession(nil)
	assert.Equal(t, 421, smtpCode(t, err))

	require.NoError(t, first.Logout())
	third, err := f.backend.NewSession(nil)
	require.NoError(t, err)

	require.NoError(t, second.Logout())
	require.NoError(t, third.Logout())
	assert.Equal(t, 0, f.backend.limiter.Current())
}

func TestStripQuoted(t *testing.T) {
	text := "Deal.\n\nOn Tue, 3 Mar 2015, buyer wrote:\n> is it still there?\n>> original\n"
	assert.Equal(t, "Deal.", stripQuoted(text))
	assert.Equal(t, "", stripQuoted("> only quoted"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "你好", truncateRunes("你好世界", 2))
	assert.Equal(t, "short", truncateRunes("  short ", 10))
}
