// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editor implements debounced persistence of in-progress post
// content. Rapid edit bursts collapse into a single save fired after a
// quiet period; an explicit save-now path bypasses the timer.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the autosave lifecycle state of a single post's saver.
type State int

const (
	// StateIdle means no unsaved content is buffered.
	StateIdle State = iota
	// StatePending means content is buffered and the quiet-period timer is armed.
	StatePending
	// StateSaving means a save is in flight.
	StateSaving
)

// String returns the state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// DefaultQuietPeriod is how long the saver waits after the last edit before
// persisting. Matches the editor's typing cadence: long enough to coalesce a
// burst, short enough that little work is lost on a crash.
const DefaultQuietPeriod = 2 * time.Second

// SaveFunc persists serialized content for a post on behalf of its owner.
type SaveFunc func(ctx context.Context, ownerID string, postID int64, content string) error

// Saver debounces content updates for one post. All methods are safe for
// concurrent use.
type Saver struct {
	ownerID string
	postID  int64
	save    SaveFunc
	quiet  time.Duration

	mu      sync.Mutex
	state   State
	content string
	dirty   bool // edited while a save was in flight
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSaver creates a saver for a single post. A non-positive quiet period
// falls back to DefaultQuietPeriod.
func NewSaver(ownerID string, postID int64, save SaveFunc, quiet time.Duration) *Saver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Saver{
		ownerID: ownerID,
		postID:  postID,
		save:    save,
		quiet:   quiet,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Update buffers the latest content and (re)arms the quiet-period timer.
// Consecutive updates within the quiet period collapse into one save.
func (s *Saver) Update(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.content = content

	switch s.state {
	case StateIdle:
		s.state = StatePending
		s.timer = time.AfterFunc(s.quiet, s.timerFired)
	case StatePending:
		s.timer.Reset(s.quiet)
	case StateSaving:
		// Current save snapshot is already stale; schedule a follow-up.
		s.dirty = true
	}
}

// SaveNow persists the latest buffered content immediately, bypassing the
// quiet period. It is synchronous: when it returns nil the content has been
// handed to the persistence callback.
func (s *Saver) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateIdle && !s.dirty {
		// Nothing buffered; the stored content is already current.
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	content := s.content
	s.dirty = false
	s.state = StateSaving
	s.mu.Unlock()

	err := s.save(ctx, s.ownerID, s.postID, content)

	s.mu.Lock()
	s.finishLocked()
	s.mu.Unlock()
	return err
}

// timerFired runs when the quiet period elapses with no further edits.
func (s *Saver) timerFired() {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return
	}
	content := s.content
	s.state = StateSaving
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.save(s.ctx, s.ownerID, s.postID, content); err != nil {
			slog.Error("autosave failed", "post_id", s.postID, "error", err)
		}
		s.mu.Lock()
		s.finishLocked()
		s.mu.Unlock()
	}()
}

// finishLocked transitions out of StateSaving. If edits arrived during the
// save, the timer is re-armed for a follow-up. Must be called with mu held.
func (s *Saver) finishLocked() {
	if s.dirty {
		s.dirty = false
		s.state = StatePending
		s.timer = time.AfterFunc(s.quiet, s.timerFired)
		return
	}
	s.state = StateIdle
}

// State returns the current lifecycle state.
func (s *Saver) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flush persists buffered content if any is pending. Used during shutdown.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.state == StatePending || s.dirty
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return s.SaveNow(ctx)
}

// Stop flushes pending content and waits for in-flight saves to finish.
func (s *Saver) Stop(ctx context.Context) error {
	err := s.Flush(ctx)
	s.cancel()
	s.wg.Wait()
	return err
}

// Manager owns one Saver per post being edited.
type Manager struct {
	save  SaveFunc
	quiet time.Duration

	mu     sync.Mutex
	savers map[int64]*Saver
}

// NewManager creates a saver manager. A non-positive quiet period falls back
// to DefaultQuietPeriod.
func NewManager(save SaveFunc, quiet time.Duration) *Manager {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Manager{
		save:   save,
		quiet:  quiet,
		savers: make(map[int64]*Saver),
	}
}

// saver returns the saver for a post, creating one if needed.
func (m *Manager) saver(ownerID string, postID int64) *Saver {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.savers[postID]
	if !ok {
		s = NewSaver(ownerID, postID, m.save, m.quiet)
		m.savers[postID] = s
	}
	return s
}

// Update buffers new content for a post, debounced per post.
func (m *Manager) Update(ownerID string, postID int64, content string) {
	m.saver(ownerID, postID).Update(content)
}

// SaveNow persists a post's buffered content immediately.
func (m *Manager) SaveNow(ctx context.Context, ownerID string, postID int64) error {
	return m.saver(ownerID, postID).SaveNow(ctx)
}

// State returns the autosave state for a post. Posts with no saver are idle.
func (m *Manager) State(postID int64) State {
	m.mu.Lock()
	s, ok := m.savers[postID]
	m.mu.Unlock()

	if !ok {
		return StateIdle
	}
	return s.State()
}

// Stop flushes and stops every saver. Used during graceful shutdown so no
// buffered content is lost.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	savers := make([]*Saver, 0, len(m.savers))
	for _, s := range m.savers {
		savers = append(savers, s)
	}
	m.mu.Unlock()

	for _, s := range savers {
		if err := s.Stop(ctx); err != nil {
			slog.Error("flushing autosave on shutdown", "post_id", s.postID, "error", err)
		}
	}
}
