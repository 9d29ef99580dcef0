// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// AuthHandler serves login, logout, and session introspection.
type AuthHandler struct {
	queries    *store.Queries
	resolver   *auth.Resolver
	protection *middleware.LoginProtection
	handler    *Handler
}

// NewAuthHandler creates the auth handler set.
func NewAuthHandler(db *sql.DB, resolver *auth.Resolver, protection *middleware.LoginProtection, h *Handler) *AuthHandler {
	return &AuthHandler{
		queries:    store.New(db),
		resolver:   resolver,
		protection: protection,
		handler:    h,
	}
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the authenticated user.
type SessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login handles POST /auth/login.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"email": "email and password are required"})
		return
	}

	if locked, remaining := a.protection.IsAccountLocked(email); locked {
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Account locked, retry in %s", remaining.Round(time.Second)), nil)
		return
	}

	ip := clientIP(r)
	user, err := a.queries.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("login lookup failed", "error", err)
		WriteInternalError(w, "Internal error")
		return
	}

	ok := false
	if err == nil && user.PasswordHash != "" {
		ok, err = auth.CheckPassword(req.Password, user.PasswordHash)
		if err != nil {
			slog.Error("password check failed", "error", err)
			WriteInternalError(w, "Internal error")
			return
		}
	}
	if !ok {
		a.protection.RecordFailedAttempt(email)
		a.logAuthEvent(r, model.EventLevelWarning, "login failed", "", ip, email)
		// Same response for unknown email and wrong password.
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	if err := a.resolver.Login(r.Context(), user.ID); err != nil {
		slog.Error("session login failed", "error", err)
		WriteInternalError(w, "Internal error")
		return
	}
	a.protection.RecordSuccessfulLogin(email)

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := auth.HashPassword(req.Password); hashErr == nil {
			_ = a.queries.SetUserPassword(r.Context(), user.ID, newHash)
		}
	}

	a.logAuthEvent(r, model.EventLevelInfo, "login succeeded", user.ID, ip, email)
	WriteSuccess(w, SessionResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil)
}

// Logout handles POST /auth/logout.
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if err := a.resolver.Logout(r.Context()); err != nil {
		slog.Error("session logout failed", "error", err)
		WriteInternalError(w, "Internal error")
		return
	}
	if userID != "" {
		a.logAuthEvent(r, model.EventLevelInfo, "logout", userID, clientIP(r), "")
	}
	WriteSuccess(w, map[string]bool{"logged_out": true}, nil)
}

// Session handles GET /auth/session.
func (a *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, SessionResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil)
}

func (a *AuthHandler) logAuthEvent(r *http.Request, level, message, userID, ip, email string) {
	metadata := map[string]any{}
	if email != "" {
		metadata["email"] = email
	}
	if raw := r.UserAgent(); raw != "" {
		ua := useragent.Parse(raw)
		metadata["browser"] = ua.Name
		metadata["os"] = ua.OS
		if ua.Bot {
			metadata["bot"] = true
		}
	}
	if a.handler.geo != nil {
		if country := a.handler.geo.Country(ip); country != "" {
			metadata["country"] = country
		}
	}
	_ = a.handler.events.LogAuthEvent(r.Context(), level, message, userID, ip, metadata)
}
