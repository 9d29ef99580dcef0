// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-service-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	require.NoError(t, f.Close())

	db, err := store.NewDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(db))
	return db
}

func recentEvents(t *testing.T, db *sql.DB) []model.Event {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	require.NoError(t, err)
	return events
}

// waitForEvent polls until an event in the category shows up, since bus
// delivery is asynchronous.
func waitForEvent(t *testing.T, db *sql.DB, category string) model.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range recentEvents(t, db) {
			if ev.Category == category {
				return ev
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no %q event recorded", category)
	return model.Event{}
}

func TestChangeLogger_RecordsSignals(t *testing.T) {
	db := testDB(t)
	bus := NewBus()

	logger := LogChanges(bus, NewEventService(db))
	defer logger.Stop()

	bus.Publish(Signal{Topic: TopicPostsChanged, UserID: "u1", EntityID: 7})
	ev := waitForEvent(t, db, model.EventCategoryPost)
	require.Equal(t, model.EventLevelInfo, ev.Level)
	require.Equal(t, "u1", ev.UserID.String)
	require.True(t, strings.Contains(ev.Metadata, string(TopicPostsChanged)))
	require.True(t, strings.Contains(ev.Metadata, `"entity_id":7`))

	bus.Publish(Signal{Topic: TopicTagsChanged, UserID: "u1", EntityID: 3})
	waitForEvent(t, db, model.EventCategoryTag)

	bus.Publish(Signal{Topic: TopicProfileChanged, UserID: "u1"})
	waitForEvent(t, db, model.EventCategoryUser)
}

func TestChangeLogger_StopUnsubscribes(t *testing.T) {
	db := testDB(t)
	bus := NewBus()

	logger := LogChanges(bus, NewEventService(db))
	require.Equal(t, 1, bus.SubscriberCount(TopicPostsChanged))

	logger.Stop()
	require.Equal(t, 0, bus.SubscriberCount(TopicPostsChanged))
	require.Equal(t, 0, bus.SubscriberCount(TopicTagsChanged))
	require.Equal(t, 0, bus.SubscriberCount(TopicProfileChanged))

	bus.Publish(Signal{Topic: TopicPostsChanged, UserID: "u1", EntityID: 1})
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, recentEvents(t, db))
}
