package memory

import (
	"fmt"
	"testing"
	"time"

	"tradyfit/backend/internal/domain"
)

func BenchmarkMemoryStore_SaveMessage(b *testing.B) {
	store := NewStore()
	sender, receiver := uint(1), uint(2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.SaveMessage(&domain.Message{
			Subject:    fmt.Sprintf("subject %d", i),
			Unread:     true,
			SenderID:   &sender,
			ReceiverID: &receiver,
			Timestamp:  time.Now(),
		})
	}
}

func BenchmarkMemoryStore_ListMessages(b *testing.B) {
	store := NewStore()
	sender, receiver := uint(1), uint(2)

	// Pre-populate with test data
	for i := 0; i < 1000; i++ {
		store.SaveMessage(&domain.Message{
			Subject:    fmt.Sprintf("subject %d", i),
			Unread:     i%2 == 0,
			SenderID:   &sender,
			ReceiverID: &receiver,
			Timestamp:  time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.ListMessages(receiver, domain.CategoryUnread)
	}
}

func BenchmarkMemoryStore_CountMessages(b *testing.B) {
	store := NewStore()
	sender, receiver := uint(1), uint(2)
	for i := 0; i < 1000; i++ {
		store.SaveMessage(&domain.Message{Subject: "s", Unread: true, SenderID: &sender, ReceiverID: &receiver})
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			store.CountMessages(receiver)
		}
	})
}
