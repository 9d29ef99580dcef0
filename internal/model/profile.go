// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// MaxBioLines caps the number of bio lines stored for a profile.
const MaxBioLines = 3

// Profile holds per-user blog display metadata. It is created lazily on the
// first profile read or write.
type Profile struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Signature    string    `json:"signature"`
	Bio          string    `json:"-"` // newline-delimited; exposed as a list at the API boundary
	GithubURL    string    `json:"github_url,omitempty"`
	LinkedinURL  string    `json:"linkedin_url,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BioLines splits the stored bio into its display lines.
func (p *Profile) BioLines() []string {
	if p.Bio == "" {
		return []string{}
	}
	return strings.Split(p.Bio, "\n")
}

// JoinBio joins bio lines into the stored representation, dropping empty
// lines and truncating to MaxBioLines.
func JoinBio(lines []string) string {
	kept := make([]string, 0, MaxBioLines)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
		if len(kept) == MaxBioLines {
			break
		}
	}
	return strings.Join(kept, "\n")
}

// DefaultProfileTitle returns the default blog title for a user.
func DefaultProfileTitle(userName string) string {
	if userName == "" {
		return "My blog"
	}
	return userName + "'s blog"
}
