// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
)

// RouteOptions carries the middleware the route groups depend on.
type RouteOptions struct {
	LoadUser        func(http.Handler) http.Handler
	RequireUser     func(http.Handler) http.Handler
	CSRF            func(http.Handler) http.Handler
	LoginProtection *middleware.LoginProtection
}

// Register mounts all API routes on the router.
func Register(r chi.Router, h *Handler, a *AuthHandler, opts RouteOptions) {
	r.Get("/api/status", h.Status)

	// Public read surface, no session required.
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/posts", h.PublicFeed)
		r.Route("/{user}", func(r chi.Router) {
			r.Get("/posts", h.PublicPosts)
			r.Get("/posts/{slug}", h.PublicPost)
			r.Get("/tags", h.PublicTags)
			r.Get("/tags/{slug}", h.PublicTag)
			r.Get("/profile", h.PublicProfile)
		})
	})

	// Auth endpoints carry CSRF protection and login rate limiting.
	r.Group(func(r chi.Router) {
		r.Use(opts.CSRF)
		r.Use(opts.LoadUser)
		r.With(opts.LoginProtection.Middleware()).Post("/auth/login", a.Login)
		r.Post("/auth/logout", a.Logout)
		r.Get("/auth/session", a.Session)
	})

	// Owner-scoped admin surface.
	r.Route("/api", func(r chi.Router) {
		r.Use(opts.CSRF)
		r.Use(opts.LoadUser)
		r.Use(opts.RequireUser)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPost)
				r.Put("/", h.UpdatePost)
				r.Delete("/", h.DeletePost)
				r.Patch("/content", h.UpdateContent)
				r.Post("/save", h.SaveContentNow)
				r.Get("/export", h.ExportPost)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Post("/", h.CreateTag)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTag)
				r.Put("/", h.UpdateTag)
				r.Delete("/", h.DeleteTag)
			})
		})

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
	})
}
