// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"sync"

	"github.com/olegiv/oblog-go/internal/model"
)

// ChangeLogger subscribes the audit log to the refresh signal bus, so every
// content change leaves an event trail regardless of which write path
// produced it.
type ChangeLogger struct {
	events  *EventService
	cancels []func()
	done    chan struct{}
	wg      sync.WaitGroup
}

// LogChanges subscribes to all change topics and records each delivered
// signal as an audit event until Stop is called.
func LogChanges(bus *Bus, events *EventService) *ChangeLogger {
	l := &ChangeLogger{events: events, done: make(chan struct{})}
	for topic, category := range map[Topic]string{
		TopicPostsChanged:   model.EventCategoryPost,
		TopicTagsChanged:    model.EventCategoryTag,
		TopicProfileChanged: model.EventCategoryUser,
	} {
		ch, cancel := bus.Subscribe(topic)
		l.cancels = append(l.cancels, cancel)
		l.wg.Add(1)
		go l.consume(ch, category)
	}
	return l
}

func (l *ChangeLogger) consume(ch <-chan Signal, category string) {
	defer l.wg.Done()
	for {
		select {
		case sig := <-ch:
			_ = l.events.LogEvent(context.Background(), model.EventLevelInfo, category,
				"content changed", sig.UserID, "", map[string]any{
					"topic":     string(sig.Topic),
					"entity_id": sig.EntityID,
				})
		case <-l.done:
			return
		}
	}
}

// Stop unsubscribes from the bus and waits for the consumers to exit.
// Signals already delivered are logged; signals published after Stop are
// dropped with the subscriptions.
func (l *ChangeLogger) Stop() {
	for _, cancel := range l.cancels {
		cancel()
	}
	close(l.done)
	l.wg.Wait()
}
