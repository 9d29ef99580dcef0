// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editor

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder collects save calls for assertions.
type recorder struct {
	mu     sync.Mutex
	calls  []string
	owners []string
	err    error
}

func (r *recorder) save(_ context.Context, ownerID string, _ int64, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, content)
	r.owners = append(r.owners, ownerID)
	return r.err
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSaver_DebouncesBurst(t *testing.T) {
	rec := &recorder{}
	s := NewSaver("u1", 1, rec.save, 50*time.Millisecond)
	defer func() { _ = s.Stop(context.Background()) }()

	// A burst of edits within the quiet period collapses to one save of the
	// final content.
	s.Update("draft v1")
	s.Update("draft v2")
	s.Update("draft v3")

	if got := s.State(); got != StatePending {
		t.Errorf("state during burst = %v, want pending", got)
	}

	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 })

	if calls := rec.snapshot(); calls[0] != "draft v3" {
		t.Errorf("saved content = %q, want latest", calls[0])
	}

	waitFor(t, time.Second, func() bool { return s.State() == StateIdle })
}

func TestSaver_QuietPeriodResetsOnEdit(t *testing.T) {
	rec := &recorder{}
	s := NewSaver("u1", 1, rec.save, 60*time.Millisecond)
	defer func() { _ = s.Stop(context.Background()) }()

	// Keep editing faster than the quiet period; nothing should save.
	for i := 0; i < 4; i++ {
		s.Update("still typing")
		time.Sleep(20 * time.Millisecond)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("saves while typing = %d, want 0", n)
	}

	// Stop typing; the save fires after the quiet period.
	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 })
}

func TestSaver_SaveNowBypassesTimer(t *testing.T) {
	rec := &recorder{}
	s := NewSaver("u1", 1, rec.save, time.Hour) // timer would never fire on its own
	defer func() { _ = s.Stop(context.Background()) }()

	s.Update("unsaved work")
	if err := s.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "unsaved work" {
		t.Errorf("calls = %v, want single save of latest content", calls)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state after SaveNow = %v, want idle", got)
	}
}

func TestSaver_EditDuringSaveSchedulesFollowUp(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var calls []string

	slow := func(_ context.Context, _ string, _ int64, content string) error {
		mu.Lock()
		calls = append(calls, content)
		first := len(calls) == 1
		mu.Unlock()
		if first {
			<-release
		}
		return nil
	}

	s := NewSaver("u1", 1, slow, 20*time.Millisecond)
	defer func() { _ = s.Stop(context.Background()) }()

	s.Update("v1")
	waitFor(t, time.Second, func() bool { return s.State() == StateSaving })

	// Edit while the save is in flight, then let the save finish.
	s.Update("v2")
	close(release)

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if calls[0] != "v1" || calls[1] != "v2" {
		t.Errorf("calls = %v, want [v1 v2]", calls)
	}
}

func TestSaver_FlushOnlyWhenPending(t *testing.T) {
	rec := &recorder{}
	s := NewSaver("u1", 1, rec.save, time.Hour)

	// Nothing buffered: Flush is a no-op.
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("saves after idle flush = %d, want 0", n)
	}

	s.Update("buffered")
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "buffered" {
		t.Errorf("calls = %v, want buffered content flushed", calls)
	}
}

func TestManager_PerPostDebounce(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.save, 30*time.Millisecond)
	defer m.Stop(context.Background())

	m.Update("u1", 1, "post one")
	m.Update("u2", 2, "post two")

	if got := m.State(1); got != StatePending {
		t.Errorf("post 1 state = %v, want pending", got)
	}
	if got := m.State(99); got != StateIdle {
		t.Errorf("unknown post state = %v, want idle", got)
	}

	waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 2 })

	saved := map[string]bool{}
	for _, c := range rec.snapshot() {
		saved[c] = true
	}
	if !saved["post one"] || !saved["post two"] {
		t.Errorf("saved = %v, want both posts", rec.snapshot())
	}
}

func TestManager_SaveNow(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.save, time.Hour)
	defer m.Stop(context.Background())

	m.Update("u1", 7, "manual save")
	if err := m.SaveNow(context.Background(), "u1", 7); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "manual save" {
		t.Errorf("calls = %v", calls)
	}
	rec.mu.Lock()
	owner := rec.owners[0]
	rec.mu.Unlock()
	if owner != "u1" {
		t.Errorf("owner = %q, want the editing user", owner)
	}
}

func TestManager_SaveNowWithoutBufferIsNoop(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.save, time.Hour)
	defer m.Stop(context.Background())

	// No Update happened; the stored content must not be overwritten.
	if err := m.SaveNow(context.Background(), "u1", 7); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("saves = %d, want 0", n)
	}
}

func TestManager_StopFlushesAll(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.save, time.Hour)

	m.Update("u1", 1, "a")
	m.Update("u1", 2, "b")
	m.Stop(context.Background())

	if n := len(rec.snapshot()); n != 2 {
		t.Errorf("saves after Stop = %d, want 2", n)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StatePending, "pending"},
		{StateSaving, "saving"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
