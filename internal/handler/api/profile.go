// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
)

// ProfileResponse is a profile in API responses. The bio is exposed as a
// list of lines.
type ProfileResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Signature    string    `json:"signature,omitempty"`
	Bio          []string  `json:"bio"`
	GithubURL    string    `json:"github_url,omitempty"`
	LinkedinURL  string    `json:"linkedin_url,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func profileToResponse(p model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:           p.ID,
		Title:        p.Title,
		Signature:    p.Signature,
		Bio:          p.BioLines(),
		GithubURL:    p.GithubURL,
		LinkedinURL:  p.LinkedinURL,
		ContactEmail: p.ContactEmail,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProfileRequest is the body for updating the caller's profile.
type ProfileRequest struct {
	Title        string   `json:"title"`
	Signature    string   `json:"signature,omitempty"`
	Bio          []string `json:"bio,omitempty"`
	GithubURL    string   `json:"github_url,omitempty"`
	LinkedinURL  string   `json:"linkedin_url,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
}

// GetProfile handles GET /api/profile. The profile is created with
// defaults on first access.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	profile, err := h.profiles.Get(r.Context(), *user)
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, profileToResponse(profile), nil)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	profile, err := h.profiles.Update(r.Context(), *user, blog.ProfileInput{
		Title:        req.Title,
		Signature:    req.Signature,
		Bio:          req.Bio,
		GithubURL:    req.GithubURL,
		LinkedinURL:  req.LinkedinURL,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		writeBlogError(w, err)
		return
	}
	WriteSuccess(w, profileToResponse(profile), nil)
}
