package memory

import (
	"testing"
	"time"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint {
	return &v
}

func seedUsers(t *testing.T, store *Store) (*domain.User, *domain.User) {
	t.Helper()
	alice := &domain.User{Email: "alice@example.com", Username: "alice"}
	bob := &domain.User{Email: "bob@example.com", Username: "bob"}
	require.NoError(t, store.CreateUser(alice))
	require.NoError(t, store.CreateUser(bob))
	return alice, bob
}

func TestMemoryStore_UserOperations(t *testing.T) {
	store := NewStore()
	alice, _ := seedUsers(t, store)

	assert.Equal(t, uint(1), alice.ID)

	byEmail, err := store.GetUserByEmail("ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byName, err := store.GetUserByUsername("Alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	err = store.CreateUser(&domain.User{Email: "alice@example.com", Username: "other"})
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	err = store.CreateUser(&domain.User{Email: "other@example.com", Username: "alice"})
	assert.ErrorIs(t, err, storage.ErrUsernameExists)

	require.NoError(t, store.SetHasNotifications(alice.ID, true))
	got, err := store.GetUserByID(alice.ID)
	require.NoError(t, err)
	assert.True(t, got.HasNotifications)

	_, err = store.GetUserByID(99)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestMemoryStore_ListMessagesOrder(t *testing.T) {
	store := NewStore()
	alice, bob := seedUsers(t, store)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := &domain.Message{Subject: "older", Unread: true, SenderID: uintPtr(bob.ID), ReceiverID: uintPtr(alice.ID), Timestamp: base}
	tieLow := &domain.Message{Subject: "tie low", Unread: false, SenderID: uintPtr(bob.ID), ReceiverID: uintPtr(alice.ID), Timestamp: base.Add(time.Minute)}
	tieHigh := &domain.Message{Subject: "tie high", Unread: true, SenderID: uintPtr(bob.ID), ReceiverID: uintPtr(alice.ID), Timestamp: base.Add(time.Minute)}
	sent := &domain.Message{Subject: "outgoing", Unread: true, SenderID: uintPtr(alice.ID), ReceiverID: uintPtr(bob.ID), Timestamp: base}

	for _, msg := range []*domain.Message{older, tieLow, tieHigh, sent} {
		require.NoError(t, store.SaveMessage(msg))
	}

	received, err := store.ListMessages(alice.ID, domain.CategoryReceived)
	require.NoError(t, err)
	require.Len(t, received, 3)
	assert.Equal(t, []uint{tieHigh.ID, tieLow.ID, older.ID}, []uint{received[0].ID, received[1].ID, received[2].ID})

	unread, err := store.ListMessages(alice.ID, domain.CategoryUnread)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, tieHigh.ID, unread[0].ID)
	assert.Equal(t, older.ID, unread[1].ID)

	outgoing, err := store.ListMessages(alice.ID, domain.CategorySent)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "outgoing", outgoing[0].Subject)

	counts, err := store.CountMessages(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageCounts{Unread: 2, Sent: 1, Received: 3}, counts)
}

func TestMemoryStore_MarkMessageRead(t *testing.T) {
	store := NewStore()
	alice, bob := seedUsers(t, store)

	msg := &domain.Message{Subject: "hello", Unread: true, SenderID: uintPtr(bob.ID), ReceiverID: uintPtr(alice.ID)}
	require.NoError(t, store.SaveMessage(msg))
	assert.False(t, msg.Timestamp.IsZero())

	require.NoError(t, store.MarkMessageRead(msg.ID))

	got, err := store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.False(t, got.Unread)

	assert.ErrorIs(t, store.MarkMessageRead(42), storage.ErrMessageNotFound)
}

func TestMemoryStore_DeleteNullsReferences(t *testing.T) {
	store := NewStore()
	alice, bob := seedUsers(t, store)

	item := &domain.Item{Name: "bike", UserID: alice.ID}
	require.NoError(t, store.SaveItem(item))

	msg := &domain.Message{Subject: "is it free?", Unread: true, SenderID: uintPtr(bob.ID), ReceiverID: uintPtr(alice.ID), ItemID: uintPtr(item.ID)}
	require.NoError(t, store.SaveMessage(msg))

	require.NoError(t, store.DeleteItem(item.ID))
	got, err := store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ItemID)

	require.NoError(t, store.DeleteUser(bob.ID))
	got, err = store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SenderID)
	require.NotNil(t, got.ReceiverID)
	assert.Equal(t, alice.ID, *got.ReceiverID)

	_, err = store.GetUserByEmail("bob@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.ErrorIs(t, store.DeleteItem(item.ID), storage.ErrItemNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	msg := &domain.Message{Subject: "original"}
	require.NoError(t, store.SaveMessage(msg))

	msg.Subject = "mutated"
	got, err := store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Subject)
}
