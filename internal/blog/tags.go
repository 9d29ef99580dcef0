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
	"github.com/olegiv/oblog-go/internal/util"
)

// TagService implements tag CRUD scoped to the owning user.
type TagService struct {
	queries *store.Queries
	bus     *service.Bus
}

// NewTagService creates a TagService. The bus may be nil in tests.
func NewTagService(db *sql.DB, bus *service.Bus) *TagService {
	return &TagService{
		queries: store.New(db),
		bus:     bus,
	}
}

// TagInput carries the caller-supplied tag fields. Name and slug are both
// explicit; neither is derived from the other.
type TagInput struct {
	Name string
	Slug string
}

func (in *TagInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return NewValidationError("name", "name is required")
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		return NewValidationError("slug", "slug is required")
	}
	if !util.IsValidSlug(in.Slug) {
		return NewValidationError("slug", "slug must contain only lowercase letters, digits, and hyphens")
	}
	return nil
}

// Create adds a tag for the owner. Fails with ErrTagQuotaExceeded once the
// owner holds model.MaxTagsPerUser tags, and with a ConflictError when the
// name or slug collides with an existing tag of the same owner.
func (s *TagService) Create(ctx context.Context, ownerID string, in TagInput) (model.Tag, error) {
	if err := in.normalize(); err != nil {
		return model.Tag{}, err
	}

	count, err := s.queries.CountTagsForOwner(ctx, ownerID)
	if err != nil {
		return model.Tag{}, fmt.Errorf("counting tags: %w", err)
	}
	if count >= model.MaxTagsPerUser {
		return model.Tag{}, ErrTagQuotaExceeded
	}

	n, err := s.queries.CountTagNameOrSlug(ctx, store.CountTagNameOrSlugParams{
		OwnerID: ownerID,
		Name:    in.Name,
		Slug:    in.Slug,
	})
	if err != nil {
		return model.Tag{}, fmt.Errorf("checking tag uniqueness: %w", err)
	}
	if n > 0 {
		return model.Tag{}, NewConflictError("tag", "name", in.Name)
	}

	tag, err := s.queries.CreateTag(ctx, store.CreateTagParams{
		Name:   in.Name,
		Slug:   in.Slug,
		UserID: ownerID,
	})
	if err != nil {
		return model.Tag{}, fmt.Errorf("creating tag: %w", err)
	}

	s.publish(ownerID, tag.ID)
	return tag, nil
}

// Get returns an owned tag. Foreign tags are not found.
func (s *TagService) Get(ctx context.Context, ownerID string, id int64) (model.Tag, error) {
	tag, err := s.queries.GetTagForOwner(ctx, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, ErrNotFound
	}
	return tag, err
}

// List returns all of the owner's tags ordered by name.
func (s *TagService) List(ctx context.Context, ownerID string) ([]model.Tag, error) {
	return s.queries.ListTagsForOwner(ctx, ownerID)
}

// Update renames an owned tag.
func (s *TagService) Update(ctx context.Context, ownerID string, id int64, in TagInput) (model.Tag, error) {
	if _, err := s.queries.GetTagForOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tag{}, ErrNotFound
		}
		return model.Tag{}, err
	}

	if err := in.normalize(); err != nil {
		return model.Tag{}, err
	}

	n, err := s.queries.CountTagNameOrSlug(ctx, store.CountTagNameOrSlugParams{
		OwnerID:   ownerID,
		Name:      in.Name,
		Slug:      in.Slug,
		ExcludeID: id,
	})
	if err != nil {
		return model.Tag{}, fmt.Errorf("checking tag uniqueness: %w", err)
	}
	if n > 0 {
		return model.Tag{}, NewConflictError("tag", "name", in.Name)
	}

	tag, err := s.queries.UpdateTag(ctx, id, ownerID, in.Name, in.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, ErrNotFound
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("updating tag: %w", err)
	}

	s.publish(ownerID, tag.ID)
	return tag, nil
}

// Delete removes an owned tag. Posts keep their other tags; only the
// associations to this tag are removed.
func (s *TagService) Delete(ctx context.Context, ownerID string, id int64) error {
	if _, err := s.queries.GetTagForOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.queries.DeleteTag(ctx, id, ownerID); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	s.publish(ownerID, id)
	return nil
}

func (s *TagService) publish(ownerID string, tagID int64) {
	if s.bus != nil {
		s.bus.Publish(service.Signal{Topic: service.TopicTagsChanged, UserID: ownerID, EntityID: tagID})
	}
}
