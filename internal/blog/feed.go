// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// FeedService serves the public read path: published posts and tag counts.
// It is ownership-free by design — everything it returns is public.
type FeedService struct {
	queries *store.Queries
}

// NewFeedService creates a FeedService.
func NewFeedService(db *sql.DB) *FeedService {
	return &FeedService{queries: store.New(db)}
}

// FeedInput filters the published post listing. An empty UserID spans all
// blogs (the landing page feed); every other caller supplies one.
type FeedInput struct {
	UserID string
	TagID  int64
	Limit  int64
}

// ListPublishedPosts returns published posts newest first.
func (s *FeedService) ListPublishedPosts(ctx context.Context, in FeedInput) ([]model.Post, error) {
	posts, err := s.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{
		UserID: in.UserID,
		TagID:  in.TagID,
		Limit:  in.Limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range posts {
		tags, err := s.queries.GetTagsForPost(ctx, posts[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading tags for post %d: %w", posts[i].ID, err)
		}
		posts[i].Tags = tags
	}
	return posts, nil
}

// GetPublishedPost returns one published post by owner and slug. Drafts and
// unknown slugs are both not found.
func (s *FeedService) GetPublishedPost(ctx context.Context, userID, slug string) (model.Post, error) {
	post, err := s.queries.GetPublishedPostBySlug(ctx, userID, slug)
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

// ListTags returns tags that have at least one published post, annotated
// with the count and sorted by it descending. An empty userID spans all
// owners.
func (s *FeedService) ListTags(ctx context.Context, userID string) ([]model.TagWithCount, error) {
	return s.queries.ListPublishedTagCounts(ctx, userID)
}

// GetTagWithPosts resolves a tag by slug within one blog and returns it
// together with its published posts, newest first. An unknown slug is not
// found; a tag with no published posts comes back with an empty list.
func (s *FeedService) GetTagWithPosts(ctx context.Context, userID, slug string) (model.TagWithCount, []model.Post, error) {
	tag, err := s.queries.GetTagBySlug(ctx, userID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TagWithCount{}, nil, ErrNotFound
	}
	if err != nil {
		return model.TagWithCount{}, nil, err
	}

	posts, err := s.ListPublishedPosts(ctx, FeedInput{UserID: userID, TagID: tag.ID})
	if err != nil {
		return model.TagWithCount{}, nil, err
	}
	count, err := s.queries.CountPublishedPostsForTag(ctx, tag.ID)
	if err != nil {
		return model.TagWithCount{}, nil, err
	}
	return model.TagWithCount{Tag: tag, PostCount: count}, posts, nil
}

// GetProfile returns the public profile for a blog owner, if one exists.
func (s *FeedService) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	profile, err := s.queries.GetProfileByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	return profile, err
}
