// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Post, Tag, Profile, and event structures.
package model

import "time"

// User roles
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// User represents a registered blog author. Users are created on first
// successful sign-in and are never mutated by content operations.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Image        string    `json:"image,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
