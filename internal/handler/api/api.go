// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON handlers for the blog: the ownership-scoped
// admin surface under /api and the anonymous public read surface.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/editor"
	"github.com/olegiv/oblog-go/internal/geoip"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/version"
)

// Handler holds the shared dependencies of all API handlers.
type Handler struct {
	posts    *blog.PostService
	tags     *blog.TagService
	profiles *blog.ProfileService
	feed     *blog.FeedService
	events   *service.EventService
	saves    *editor.Manager
	geo      *geoip.Resolver
}

// NewHandler creates the API handler set on top of the domain services.
func NewHandler(db *sql.DB, bus *service.Bus, saves *editor.Manager, geo *geoip.Resolver) *Handler {
	return &Handler{
		posts:    blog.NewPostService(db, bus),
		tags:     blog.NewTagService(db, bus),
		profiles: blog.NewProfileService(db, bus),
		feed:     blog.NewFeedService(db),
		events:   service.NewEventService(db),
		saves:    saves,
		geo:      geo,
	}
}

// Response is the success envelope.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries listing metadata.
type Meta struct {
	Total int64 `json:"total,omitempty"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single API error.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response wrapped in the success envelope.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 response wrapped in the success envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 response.
func WriteConflict(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusConflict, "conflict", message, details)
}

// WriteValidationError writes a 400 response with per-field details.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusBadRequest, "validation_error", "Validation failed", fieldErrors)
}

// WriteInternalError writes a 500 response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// writeBlogError maps domain errors onto HTTP responses. Unknown errors are
// logged and reported as 500 without leaking details.
func writeBlogError(w http.ResponseWriter, err error) {
	var verr *blog.ValidationError
	var cerr *blog.ConflictError

	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, map[string]string{verr.Field: verr.Message})
	case errors.As(err, &cerr):
		WriteConflict(w, cerr.Error(), map[string]string{cerr.Field: cerr.Value})
	case errors.Is(err, blog.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, blog.ErrTagQuotaExceeded):
		WriteForbidden(w, "Tag quota exceeded")
	default:
		slog.Error("api request failed", "error", err)
		WriteInternalError(w, "Internal error")
	}
}

// parseIDParam reads the {id} route parameter.
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// clientIP extracts the originating client address for event logging.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// StatusResponse reports API availability and build information.
type StatusResponse struct {
	Status string       `json:"status"`
	Build  version.Info `json:"build"`
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Build: version.Current()}, nil)
}
