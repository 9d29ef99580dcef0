// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"sync"
)

// Topic names a class of change notifications on the bus.
type Topic string

// Topics published by the write path. List views subscribe to the topic for
// the entity type they render and refetch on delivery.
const (
	TopicPostsChanged   Topic = "posts.changed"
	TopicTagsChanged    Topic = "tags.changed"
	TopicProfileChanged Topic = "profile.changed"
)

// Signal is one change notification: which topic, whose data, and which row.
type Signal struct {
	Topic    Topic
	UserID   string
	EntityID int64
}

// Bus is an in-process publish/subscribe hub for refresh signals. Publishing
// never blocks: slow subscribers miss signals rather than stalling writers,
// which is acceptable because a signal only means "refetch".
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[int]chan Signal
	next int
}

// NewBus creates an empty signal bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]chan Signal)}
}

// Subscribe registers interest in a topic. The returned channel is buffered;
// call the cancel function to unsubscribe and release it.
func (b *Bus) Subscribe(topic Topic) (<-chan Signal, func()) {
	ch := make(chan Signal, 16)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Signal)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.subs[topic]; ok {
			delete(subs, id)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a signal to every subscriber of its topic.
func (b *Bus) Publish(sig Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[sig.Topic] {
		select {
		case ch <- sig:
		default:
			// Subscriber buffer full; it will catch up on its next refetch.
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
