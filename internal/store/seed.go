// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/util"
)

// Seed populates a development database with a demo author, tags, and posts.
// It is a no-op when the demo user already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if _, err := queries.GetUserByEmail(ctx, "demo@example.com"); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking demo user: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		ID:    uuid.NewString(),
		Name:  "Demo Author",
		Email: "demo@example.com",
		Role:  model.RoleAuthor,
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	tagIDs := make(map[string]int64)
	for _, name := range []string{"Tech", "Lifestyle", "Thoughts", "Design"} {
		slug := util.Slugify(name)
		tag, err := queries.CreateTag(ctx, CreateTagParams{Name: name, Slug: slug, UserID: user.ID})
		if err != nil {
			return fmt.Errorf("creating demo tag %q: %w", name, err)
		}
		tagIDs[slug] = tag.ID
	}

	posts := []struct {
		title, content, excerpt string
		published                     bool
		tags                          []string
	}{
		{
			title: "Server Rendering Revisited",
			content: "<h2>Back to the server</h2><p>Rendering on the server keeps the client light " +
				"and the first paint fast.</p><p>This post walks through what changed and why it matters.</p>",
			excerpt:   "Why server rendering is worth a second look.",
			published: true,
			tags:      []string{"tech", "design"},
		},
		{
			title: "A Quiet Month",
			content: "<p>Some months are for shipping. Others are for sharpening the saw.</p>" +
				"<blockquote><p>Slow is smooth, smooth is fast.</p></blockquote>",
			excerpt:   "Notes from a deliberately slow month.",
			published: true,
			tags:      []string{"lifestyle", "thoughts"},
		},
		{
			title:     "Draft: Designing Tag Systems",
			content:   "<p>Work in progress.</p>",
			published: false,
			tags:      []string{"design"},
		},
	}

	for _, p := range posts {
		post, err := queries.CreatePost(ctx, CreatePostParams{
			Title:     p.title,
			Slug:      util.Slugify(p.title),
			Content:   p.content,
			Excerpt:   p.excerpt,
			Published: p.published,
			UserID:    user.ID,
		})
		if err != nil {
			return fmt.Errorf("creating demo post %q: %w", p.title, err)
		}
		for _, slug := range p.tags {
			if err := queries.AddTagToPost(ctx, post.ID, tagIDs[slug]); err != nil {
				return fmt.Errorf("tagging demo post %q: %w", p.title, err)
			}
		}
	}

	slog.Info("seeded demo data", "user_id", user.ID, "posts", len(posts), "tags", len(tagIDs))
	return nil
}
