// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/markup"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// PostResponse is a post in API responses.
type PostResponse struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Content   string        `json:"content"`
	Excerpt   string        `json:"excerpt,omitempty"`
	Published bool          `json:"published"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Tags      []TagResponse `json:"tags"`
}

// TagResponse is a tag embedded in post responses.
type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func postToResponse(p model.Post) PostResponse {
	resp := PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Tags:      make([]TagResponse, 0, len(p.Tags)),
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return resp
}

func postsToResponse(posts []model.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postToResponse(p))
	}
	return out
}

// PostRequest is the request body for creating or updating a post. A nil
// TagIDs leaves tag associations unchanged on update; an empty list clears
// them.
type PostRequest struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug,omitempty"`
	Content   string   `json:"content,omitempty"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Published bool     `json:"published"`
	TagIDs    *[]int64 `json:"tag_ids,omitempty"`
}

func (req *PostRequest) toInput() blog.PostInput {
	in := blog.PostInput{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Published,
	}
	if req.TagIDs != nil {
		in.TagIDs = *req.TagIDs
		if in.TagIDs == nil {
			in.TagIDs = []int64{}
		}
	}
	return in
}

// ListPosts handles GET /api/posts. Supports search, tag, and published
// filters.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	in := blog.ListInput{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("tag"); raw != "" {
		tagID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid tag ID")
			return
		}
		in.TagID = tagID
	}
	if raw := r.URL.Query().Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			WriteBadRequest(w, "Invalid published filter")
			return
		}
		in.Published = &published
	}

	posts, err := h.posts.List(r.Context(), userID, in)
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, postsToResponse(posts), &Meta{Total: int64(len(posts))})
}

// CreatePost handles POST /api/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeBlogError(w, err)
		return
	}

	_ = h.events.LogPostEvent(r.Context(), model.EventLevelInfo, "post created",
		userID, clientIP(r), map[string]any{"post_id": post.ID, "slug": post.Slug})
	WriteCreated(w, postToResponse(post))
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.posts.Get(r.Context(), userID, id)
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, postToResponse(post), nil)
}

// UpdatePost handles PUT /api/posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	post, err := h.posts.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, postToResponse(post), nil)
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.posts.Delete(r.Context(), userID, id); err != nil {
		writeBlogError(w, err)
		return
	}

	_ = h.events.LogPostEvent(r.Context(), model.EventLevelInfo, "post deleted",
		userID, clientIP(r), map[string]any{"post_id": id})
	WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}

// ContentRequest is the body for the autosave endpoints.
type ContentRequest struct {
	Content string `json:"content"`
}

// SaveState reports the autosave state of a post.
type SaveState struct {
	PostID int64  `json:"post_id"`
	State  string `json:"state"`
}

// UpdateContent handles PATCH /api/posts/{id}/content. The write is
// buffered and lands after the quiet period; repeated edits collapse into
// one save.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req ContentRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	// Ownership gate up front; the buffered save is also owner-scoped.
	if _, err := h.posts.Get(r.Context(), userID, id); err != nil {
		writeBlogError(w, err)
		return
	}

	h.saves.Update(userID, id, req.Content)
	WriteJSON(w, http.StatusAccepted, Response{Data: SaveState{
		PostID: id,
		State:  h.saves.State(id).String(),
	}})
}

// SaveContentNow handles POST /api/posts/{id}/save. It bypasses the quiet
// period and persists the latest buffered content before returning. A body
// with content updates the buffer first.
func (h *Handler) SaveContentNow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	if _, err := h.posts.Get(r.Context(), userID, id); err != nil {
		writeBlogError(w, err)
		return
	}

	if r.ContentLength > 0 {
		var req ContentRequest
		if err := decodeJSON(r, &req); err != nil {
			WriteBadRequest(w, "Invalid JSON body")
			return
		}
		h.saves.Update(userID, id, req.Content)
	}

	if err := h.saves.SaveNow(r.Context(), userID, id); err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, SaveState{PostID: id, State: h.saves.State(id).String()}, nil)
}

// ExportPost handles GET /api/posts/{id}/export: the stored content
// converted to Markdown for offline editing or migration elsewhere.
func (h *Handler) ExportPost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.posts.Get(r.Context(), userID, id)
	if err != nil {
		writeBlogError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+post.Slug+`.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup.ToMarkdown(post.Content)))
}
