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

// PostService implements post CRUD scoped to the owning user.
type PostService struct {
	db      *sql.DB
	queries *store.Queries
	bus     *service.Bus
}

// NewPostService creates a PostService. The bus may be nil in tests.
func NewPostService(db *sql.DB, bus *service.Bus) *PostService {
	return &PostService{
		db:      db,
		queries: store.New(db),
		bus:     bus,
	}
}

// PostInput carries the writable post fields. For updates, a nil TagIDs
// leaves associations untouched while an empty slice clears them.
type PostInput struct {
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
	TagIDs    []int64
}

// normalize validates the input. Title, slug, and content are all
// required; the editor supplies the slug explicitly rather than deriving it
// here, so a typo'd empty slug is rejected instead of silently invented.
func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return NewValidationError("title", "title is required")
	}

	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		return NewValidationError("slug", "slug is required")
	}
	if !util.IsValidSlug(in.Slug) {
		return NewValidationError("slug", "slug must contain only lowercase letters, digits, and hyphens")
	}

	if strings.TrimSpace(in.Content) == "" {
		return NewValidationError("content", "content is required")
	}
	return nil
}

// checkTagOwnership verifies every referenced tag belongs to the owner.
// All-or-nothing: a single foreign or missing tag fails the whole request.
func (s *PostService) checkTagOwnership(ctx context.Context, ownerID string, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	owned, err := s.queries.CountOwnedTags(ctx, ownerID, tagIDs)
	if err != nil {
		return fmt.Errorf("checking tag ownership: %w", err)
	}
	if owned != int64(len(dedupe(tagIDs))) {
		return NewValidationError("tag_ids", "one or more tags do not exist")
	}
	return nil
}

// Create adds a post for the owner, defaulting to unpublished, and
// associates the given tags in the same transaction.
func (s *PostService) Create(ctx context.Context, ownerID string, in PostInput) (model.Post, error) {
	if err := in.normalize(); err != nil {
		return model.Post{}, err
	}
	if err := s.checkTagOwnership(ctx, ownerID, in.TagIDs); err != nil {
		return model.Post{}, err
	}

	n, err := s.queries.CountPostSlug(ctx, ownerID, in.Slug)
	if err != nil {
		return model.Post{}, fmt.Errorf("checking slug: %w", err)
	}
	if n > 0 {
		return model.Post{}, NewConflictError("post", "slug", in.Slug)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Post{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	post, err := qtx.CreatePost(ctx, store.CreatePostParams{
		Title:     in.Title,
		Slug:      in.Slug,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Published: in.Published,
		UserID:    ownerID,
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("creating post: %w", err)
	}
	for _, tagID := range dedupe(in.TagIDs) {
		if err := qtx.AddTagToPost(ctx, post.ID, tagID); err != nil {
			return model.Post{}, fmt.Errorf("associating tag %d: %w", tagID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Post{}, fmt.Errorf("committing: %w", err)
	}

	if post.Tags, err = s.queries.GetTagsForPost(ctx, post.ID); err != nil {
		return model.Post{}, fmt.Errorf("loading tags: %w", err)
	}

	s.publish(ownerID, post.ID)
	return post, nil
}

// Get returns an owned post with its tags. Foreign posts are not found.
func (s *PostService) Get(ctx context.Context, ownerID string, id int64) (model.Post, error) {
	post, err := s.queries.GetPostForOwner(ctx, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	if post.Tags, err = s.queries.GetTagsForPost(ctx, post.ID); err != nil {
		return model.Post{}, fmt.Errorf("loading tags: %w", err)
	}
	return post, nil
}

// ListInput filters the owner's post listing.
type ListInput struct {
	Search    string
	TagID     int64
	Published *bool
}

// List returns the owner's posts, newest first, with tags attached.
func (s *PostService) List(ctx context.Context, ownerID string, in ListInput) ([]model.Post, error) {
	posts, err := s.queries.ListPostsForOwner(ctx, store.ListPostsForOwnerParams{
		OwnerID:   ownerID,
		Search:    in.Search,
		TagID:     in.TagID,
		Published: in.Published,
	})
	if err != nil {
		return nil, err
	}
	return s.attachTags(ctx, posts)
}

// Update edits an owned post. The slug conflict check only runs when the
// slug actually changes, so saving a post without renaming it never
// conflicts with itself.
func (s *PostService) Update(ctx context.Context, ownerID string, id int64, in PostInput) (model.Post, error) {
	existing, err := s.queries.GetPostForOwner(ctx, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}

	if err := in.normalize(); err != nil {
		return model.Post{}, err
	}
	if err := s.checkTagOwnership(ctx, ownerID, in.TagIDs); err != nil {
		return model.Post{}, err
	}

	if in.Slug != existing.Slug {
		n, err := s.queries.CountPostSlugExcluding(ctx, ownerID, in.Slug, id)
		if err != nil {
			return model.Post{}, fmt.Errorf("checking slug: %w", err)
		}
		if n > 0 {
			return model.Post{}, NewConflictError("post", "slug", in.Slug)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Post{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	post, err := qtx.UpdatePost(ctx, store.UpdatePostParams{
		ID:        id,
		UserID:    ownerID,
		Title:     in.Title,
		Slug:      in.Slug,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Published: in.Published,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("updating post: %w", err)
	}

	if in.TagIDs != nil {
		// Reassociate: clear then connect the new set.
		if err := qtx.ClearPostTags(ctx, id); err != nil {
			return model.Post{}, fmt.Errorf("clearing tags: %w", err)
		}
		for _, tagID := range dedupe(in.TagIDs) {
			if err := qtx.AddTagToPost(ctx, id, tagID); err != nil {
				return model.Post{}, fmt.Errorf("associating tag %d: %w", tagID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Post{}, fmt.Errorf("committing: %w", err)
	}

	if post.Tags, err = s.queries.GetTagsForPost(ctx, post.ID); err != nil {
		return model.Post{}, fmt.Errorf("loading tags: %w", err)
	}

	s.publish(ownerID, post.ID)
	return post, nil
}

// SaveContent persists just the serialized content, the autosave path.
func (s *PostService) SaveContent(ctx context.Context, ownerID string, id int64, content string) error {
	if _, err := s.queries.GetPostForOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.queries.UpdatePostContent(ctx, id, ownerID, content)
}

// Delete removes an owned post; its tag associations cascade but the tags
// themselves survive.
func (s *PostService) Delete(ctx context.Context, ownerID string, id int64) error {
	if _, err := s.queries.GetPostForOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.queries.DeletePost(ctx, id, ownerID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	s.publish(ownerID, id)
	return nil
}

func (s *PostService) attachTags(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	for i := range posts {
		tags, err := s.queries.GetTagsForPost(ctx, posts[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading tags for post %d: %w", posts[i].ID, err)
		}
		posts[i].Tags = tags
	}
	return posts, nil
}

func (s *PostService) publish(ownerID string, postID int64) {
	if s.bus != nil {
		s.bus.Publish(service.Signal{Topic: service.TopicPostsChanged, UserID: ownerID, EntityID: postID})
	}
}

// dedupe returns ids with duplicates removed, preserving order.
func dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
