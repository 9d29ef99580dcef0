// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginProtection_AccountLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	email := "victim@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account should not start locked")
	}

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts, want lock at 3", i+1)
		}
	}

	locked, duration := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("account should be locked after 3 failed attempts")
	}
	if duration != time.Minute {
		t.Errorf("lock duration = %v, want 1m", duration)
	}

	if locked, remaining := lp.IsAccountLocked(email); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v), want locked with time remaining", locked, remaining)
	}
}

func TestLoginProtection_ExponentialBackoff(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Hour,
	})

	email := "repeat@example.com"

	lp.RecordFailedAttempt(email)
	if locked, d := lp.RecordFailedAttempt(email); !locked || d != time.Minute {
		t.Fatalf("first lockout = (%v, %v), want (true, 1m)", locked, d)
	}

	// Expire the first lockout so attempts count again.
	lp.attemptsMu.Lock()
	lp.failedAttempts[email].lockedUntil = time.Now().Add(-time.Second)
	lp.attemptsMu.Unlock()

	lp.RecordFailedAttempt(email)
	if locked, d := lp.RecordFailedAttempt(email); !locked || d != 2*time.Minute {
		t.Fatalf("second lockout = (%v, %v), want (true, 2m)", locked, d)
	}
}

func TestLoginProtection_SuccessClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())
	email := "ok@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("remaining = %d, want 3", got)
	}

	lp.RecordSuccessfulLogin(email)
	if got := lp.GetRemainingAttempts(email); got != 5 {
		t.Errorf("remaining after success = %d, want 5", got)
	}
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit: 100, // effectively unlimited for GET passthrough check
		IPBurst:     1,
	})

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET requests bypass rate limiting entirely.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}

	// Burst of 1: second immediate POST from the same IP is rejected.
	lp2 := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 1})
	handler2 := lp2.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")

	rec = httptest.NewRecorder()
	handler2.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler2.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second POST status = %d, want 429", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"x_real_ip", map[string]string{"X-Real-IP": "198.51.100.1"}, "10.0.0.1:1234", "198.51.100.1"},
		{"x_forwarded_for", map[string]string{"X-Forwarded-For": "198.51.100.2"}, "10.0.0.1:1234", "198.51.100.2"},
		{"remote_addr", nil, "10.0.0.1:1234", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
