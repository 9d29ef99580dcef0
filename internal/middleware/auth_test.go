// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/oblog-go/internal/model"
)

func requestWithUser(user model.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
	ctx := context.WithValue(r.Context(), ContextKeyUser, user)
	return r.WithContext(ctx)
}

func TestRequireUser_Unauthorized(t *testing.T) {
	called := false
	handler := RequireUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if called {
		t.Error("next handler should not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error.Code != "unauthorized" {
		t.Errorf("error code = %q, want %q", body.Error.Code, "unauthorized")
	}
}

func TestRequireUser_Authenticated(t *testing.T) {
	called := false
	handler := RequireUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(model.User{ID: "u1", Email: "a@example.com"}))

	if !called {
		t.Error("next handler should be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGetUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUser(r) != nil {
		t.Error("GetUser should return nil without context user")
	}
	if GetUserID(r) != "" {
		t.Error("GetUserID should return empty string without context user")
	}

	r = requestWithUser(model.User{ID: "u42", Email: "owner@example.com"})
	user := GetUser(r)
	if user == nil {
		t.Fatal("GetUser returned nil")
	}
	if user.ID != "u42" {
		t.Errorf("ID = %q, want u42", user.ID)
	}
	if GetUserID(r) != "u42" {
		t.Errorf("GetUserID = %q, want u42", GetUserID(r))
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/7", nil))

	if got != "/api/posts/7" {
		t.Errorf("request path = %q, want /api/posts/7", got)
	}

	if GetRequestPath(context.Background()) != "" {
		t.Error("GetRequestPath should return empty string without middleware")
	}
}
