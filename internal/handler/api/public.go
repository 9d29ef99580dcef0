// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/markup"
	"github.com/olegiv/oblog-go/internal/model"
)

// PublicPostResponse is a published post as anonymous readers see it. The
// content is the sanitized rendered view, not the stored markup.
type PublicPostResponse struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Excerpt   string        `json:"excerpt,omitempty"`
	HTML      string        `json:"html"`
	AuthorID  string        `json:"author_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Tags      []TagResponse `json:"tags"`
}

func publicPostToResponse(p model.Post) PublicPostResponse {
	resp := PublicPostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		HTML:      markup.RenderForViewing(p.Content),
		AuthorID:  p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Tags:      make([]TagResponse, 0, len(p.Tags)),
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return resp
}

// PublicTagResponse is a tag in public listings, annotated with how many
// published posts carry it.
type PublicTagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count struct {
		Posts int64 `json:"posts"`
	} `json:"_count"`
}

// PublicFeed handles GET /blogs/posts: the cross-blog landing feed of
// recent published posts.
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	h.writePublicPosts(w, r, blog.FeedInput{})
}

// PublicPosts handles GET /blogs/{user}/posts.
func (h *Handler) PublicPosts(w http.ResponseWriter, r *http.Request) {
	h.writePublicPosts(w, r, blog.FeedInput{UserID: chi.URLParam(r, "user")})
}

func (h *Handler) writePublicPosts(w http.ResponseWriter, r *http.Request, in blog.FeedInput) {
	if raw := r.URL.Query().Get("tag"); raw != "" {
		tagID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid tag ID")
			return
		}
		in.TagID = tagID
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 {
			WriteBadRequest(w, "Invalid limit")
			return
		}
		in.Limit = limit
	}

	posts, err := h.feed.ListPublishedPosts(r.Context(), in)
	if err != nil {
		writeBlogError(w, err)
		return
	}

	out := make([]PublicPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, publicPostToResponse(p))
	}
	WriteSuccess(w, out, &Meta{Total: int64(len(out))})
}

// PublicPost handles GET /blogs/{user}/posts/{slug}. Drafts are not found.
func (h *Handler) PublicPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.feed.GetPublishedPost(r.Context(), chi.URLParam(r, "user"), chi.URLParam(r, "slug"))
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, publicPostToResponse(post), nil)
}

// PublicTags handles GET /blogs/{user}/tags. Only tags with at least one
// published post appear, most used first.
func (h *Handler) PublicTags(w http.ResponseWriter, r *http.Request) {
	counts, err := h.feed.ListTags(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeBlogError(w, err)
		return
	}

	out := make([]PublicTagResponse, 0, len(counts))
	for _, t := range counts {
		tag := PublicTagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
		tag.Count.Posts = t.PostCount
		out = append(out, tag)
	}
	WriteSuccess(w, out, &Meta{Total: int64(len(out))})
}

// PublicTagPostsResponse is one tag resolved by slug, bundled with its
// published posts.
type PublicTagPostsResponse struct {
	PublicTagResponse
	Posts []PublicPostResponse `json:"posts"`
}

// PublicTag handles GET /blogs/{user}/tags/{slug}: the tag archive page
// backing data. Unknown slugs are not found.
func (h *Handler) PublicTag(w http.ResponseWriter, r *http.Request) {
	tag, posts, err := h.feed.GetTagWithPosts(r.Context(), chi.URLParam(r, "user"), chi.URLParam(r, "slug"))
	if err != nil {
		writeBlogError(w, err)
		return
	}

	resp := PublicTagPostsResponse{
		PublicTagResponse: PublicTagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug},
		Posts:             make([]PublicPostResponse, 0, len(posts)),
	}
	resp.Count.Posts = tag.PostCount
	for _, p := range posts {
		resp.Posts = append(resp.Posts, publicPostToResponse(p))
	}
	WriteSuccess(w, resp, nil)
}

// PublicProfile handles GET /blogs/{user}/profile.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.feed.GetProfile(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, profileToResponse(profile), nil)
}
