// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// ProfileService manages per-user blog profiles. Profiles are created
// lazily: the first read or write materializes a row with defaults derived
// from the user.
type ProfileService struct {
	queries *store.Queries
	bus     *service.Bus
}

// NewProfileService creates a ProfileService. The bus may be nil in tests.
func NewProfileService(db *sql.DB, bus *service.Bus) *ProfileService {
	return &ProfileService{
		queries: store.New(db),
		bus:     bus,
	}
}

// Get returns the user's profile, creating it with defaults on first access.
func (s *ProfileService) Get(ctx context.Context, user model.User) (model.Profile, error) {
	profile, err := s.queries.GetProfileByUserID(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, err
	}

	return s.queries.CreateProfile(ctx, store.CreateProfileParams{
		UserID: user.ID,
		Title:  model.DefaultProfileTitle(user.Name),
	})
}

// ProfileInput carries the writable profile fields. Bio arrives as separate
// lines and is stored joined.
type ProfileInput struct {
	Title        string
	Signature    string
	Bio          []string
	GithubURL    string
	LinkedinURL  string
	ContactEmail string
}

// Update replaces the user's profile fields, creating the profile first if
// it does not exist yet.
func (s *ProfileService) Update(ctx context.Context, user model.User, in ProfileInput) (model.Profile, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = model.DefaultProfileTitle(user.Name)
	}

	// Materialize the row so the update always has a target.
	if _, err := s.Get(ctx, user); err != nil {
		return model.Profile{}, fmt.Errorf("loading profile: %w", err)
	}

	profile, err := s.queries.UpdateProfile(ctx, store.UpdateProfileParams{
		UserID:       user.ID,
		Title:        in.Title,
		Signature:    strings.TrimSpace(in.Signature),
		Bio:          model.JoinBio(in.Bio),
		GithubURL:    strings.TrimSpace(in.GithubURL),
		LinkedinURL:  strings.TrimSpace(in.LinkedinURL),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
	})
	if err != nil {
		return model.Profile{}, fmt.Errorf("updating profile: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(service.Signal{Topic: service.TopicProfileChanged, UserID: user.ID, EntityID: profile.ID})
	}
	return profile, nil
}
