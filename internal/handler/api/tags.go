// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// TagRequest is the body for creating or renaming a tag. Both fields are
// required.
type TagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func tagsToResponse(tags []model.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return out
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	tags, err := h.tags.List(r.Context(), userID)
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, tagsToResponse(tags), &Meta{Total: int64(len(tags))})
}

// CreateTag handles POST /api/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req TagRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	tag, err := h.tags.Create(r.Context(), userID, blog.TagInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		writeBlogError(w, err)
		return
	}

	_ = h.events.LogTagEvent(r.Context(), model.EventLevelInfo, "tag created",
		userID, clientIP(r), map[string]any{"tag_id": tag.ID, "name": tag.Name})
	WriteCreated(w, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
}

// GetTag handles GET /api/tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid tag ID")
		return
	}

	tag, err := h.tags.Get(r.Context(), userID, id)
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug}, nil)
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid tag ID")
		return
	}

	var req TagRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	tag, err := h.tags.Update(r.Context(), userID, id, blog.TagInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug}, nil)
}

// DeleteTag handles DELETE /api/tags/{id}. Posts keep their other tags.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid tag ID")
		return
	}

	if err := h.tags.Delete(r.Context(), userID, id); err != nil {
		writeBlogError(w, err)
		return
	}

	_ = h.events.LogTagEvent(r.Context(), model.EventLevelInfo, "tag deleted",
		userID, clientIP(r), map[string]any{"tag_id": id})
	WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}
