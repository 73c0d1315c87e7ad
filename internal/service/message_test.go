package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"
	"tradyfit/backend/internal/storage/memory"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(userID uint, event string, payload interface{}) {
	m.Called(userID, event, payload)
}

type fixture struct {
	store  *memory.Store
	svc    *MessageService
	items  *ItemService
	seller *domain.User
	buyer  *domain.User
	item   *domain.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()

	seller := &domain.User{Email: "seller@example.com", Username: "seller"}
	buyer := &domain.User{Email: "buyer@example.com", Username: "buyer"}
	require.NoError(t, store.CreateUser(seller))
	require.NoError(t, store.CreateUser(buyer))

	items := NewItemService(store)
	item, err := items.Create(seller.ID, CreateItemInput{Name: "road bike"})
	require.NoError(t, err)

	return &fixture{
		store:  store,
		svc:    NewMessageService(store, nil),
		items:  items,
		seller: seller,
		buyer:  buyer,
		item:   item,
	}
}

func TestMessageService_Send(t *testing.T) {
	f := newFixture(t)
	notifier := new(MockNotifier)
	notifier.On("NotifyUser", f.seller.ID, EventNewMessage, mock.AnythingOfType("domain.MessageSummary")).Once()
	notifier.On("NotifyUser", mock.Anything, EventCounts, mock.Anything).Twice()
	f.svc.SetNotifier(notifier)

	msg, err := f.svc.Send(f.buyer.ID, f.item.ID, ComposeInput{Subject: "  Still available?  ", Description: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "Still available?", msg.Subject)
	assert.True(t, msg.Unread)
	assert.Equal(t, f.seller.ID, *msg.ReceiverID)
	assert.Equal(t, f.item.ID, *msg.ItemID)

	seller, err := f.store.GetUserByID(f.seller.ID)
	require.NoError(t, err)
	assert.True(t, seller.HasNotifications)

	notifier.AssertExpectations(t)
}

func TestMessageService_SendErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(f.seller.ID, f.item.ID, ComposeInput{Subject: "hello"})
	assert.ErrorIs(t, err, ErrSelfMessage)

	_, err = f.svc.Send(f.buyer.ID, 999, ComposeInput{Subject: "hello"})
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	_, err = f.svc.Send(f.buyer.ID, f.item.ID, ComposeInput{Subject: "x"})
	assert.ErrorIs(t, err, domain.ErrSubjectLength)
}

func TestMessageService_GetMarksRead(t *testing.T) {
	f := newFixture(t)
	msg, err := f.svc.Send(f.buyer.ID, f.item.ID, ComposeInput{Subject: "hello"})
	require.NoError(t, err)

	// 发送者查看不改变已读状态
	got, err := f.svc.Get(f.buyer.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.Unread)

	got, err = f.svc.Get(f.seller.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, got.Unread)

	stored, err := f.store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.False(t, stored.Unread)

	stranger := &domain.User{Email: "x@example.com", Username: "stranger"}
	require.NoError(t, f.store.CreateUser(stranger))
	_, err = f.svc.Get(stranger.ID, msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMessageService_Reply(t *testing.T) {
	f := newFixture(t)
	msg, err := f.svc.Send(f.buyer.ID, f.item.ID, ComposeInput{Subject: "hello"})
	require.NoError(t, err)

	_, err = f.svc.Reply(f.buyer.ID, msg.ID, ComposeInput{Subject: "again"})
	assert.ErrorIs(t, err, ErrNotReceiver)

	reply, err := f.svc.Reply(f.seller.ID, msg.ID, ComposeInput{Subject: "yes it is"})
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, *reply.ReceiverID)
	assert.Equal(t, f.seller.ID, *reply.SenderID)
	assert.Equal(t, f.item.ID, *reply.ItemID)
}

func TestMessageService_ReplyAfterDeletion(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Send(f.buyer.ID, f.item.ID, ComposeInput{Subject: "hello"})
	require.NoError(t, err)

	require.NoError(t, f.items.Delete(f.seller.ID, f.item.ID))
	_, err = f.svc.Reply(f.seller.ID, first.ID, ComposeInput{Subject: "sold"})
	assert.ErrorIs(t, err, ErrItemDeleted)

	other, err := f.items.Create(f.seller.ID, CreateItemInput{Name: "helmet"})
	require.NoError(t, err)
	second, err := f.svc.Send(f.buyer.ID, other.ID, ComposeInput{Subject: "helmet?"})
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteUser(f.buyer.ID))
	_, err = f.svc.Reply(f.seller.ID, second.ID, ComposeInput{Subject: "gone"})
	assert.ErrorIs(t, err, ErrSenderDeleted)
}

func TestMessageService_Notifications(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, subject := range []string{"Hello", "Offer"} {
		require.NoError(t, f.store.SaveMessage(&domain.Message{
			Subject:    subject,
			Unread:     true,
			SenderID:   &f.buyer.ID,
			ReceiverID: &f.seller.ID,
			ItemID:     &f.item.ID,
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, f.store.SetHasNotifications(f.seller.ID, true))

	resp, err := f.svc.Notifications(f.seller.ID, "inbox")
	require.NoError(t, err)
	assert.Equal(t, "inbox", resp.Type)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "Offer", resp.Messages[0].Subject)
	assert.Equal(t, "Hello", resp.Messages[1].Subject)
	assert.Equal(t, domain.MessageCounts{Unread: 2, Sent: 0, Received: 2}, resp.MessageCounts)

	seller, err := f.store.GetUserByID(f.seller.ID)
	require.NoError(t, err)
	assert.False(t, seller.HasNotifications)

	sent, err := f.svc.Notifications(f.buyer.ID, "sent")
	require.NoError(t, err)
	assert.Len(t, sent.Messages, 2)
	assert.Equal(t, 2, sent.Sent)

	empty, err := f.svc.Notifications(f.buyer.ID, "unread")
	require.NoError(t, err)
	assert.NotNil(t, empty.Messages)
	assert.Empty(t, empty.Messages)

	_, err = f.svc.Notifications(f.seller.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestItemService_Create(t *testing.T) {
	f := newFixture(t)

	_, err := f.items.Create(f.seller.ID, CreateItemInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidItem)

	assert.ErrorIs(t, f.items.Delete(f.buyer.ID, f.item.ID), ErrForbidden)
}
