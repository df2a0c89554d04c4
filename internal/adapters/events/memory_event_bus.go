package events

import (
	"context"
	"sync"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// MemoryEventBus delivers notifications within a single process. It is used
// when Redis is disabled.
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.Notification]struct{}
	closed      bool
}

// NewMemoryEventBus creates a new in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{
		subscribers: make(map[string]map[chan *entities.Notification]struct{}),
	}
}

// Publish delivers to current subscribers, dropping for any whose buffer is full
func (b *MemoryEventBus) Publish(_ context.Context, channel string, notification *entities.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- notification:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel closed when ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error) {
	notifications := make(chan *entities.Notification, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(notifications)
		return notifications, nil
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.Notification]struct{})
	}
	b.subscribers[channel][notifications] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, notifications)
	}()
	return notifications, nil
}

func (b *MemoryEventBus) remove(channel string, notifications chan *entities.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[channel][notifications]; !ok {
		return
	}
	delete(b.subscribers[channel], notifications)
	close(notifications)
	if len(b.subscribers[channel]) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close drops every subscriber
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}
