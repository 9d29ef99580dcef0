// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

const postColumns = "id, title, slug, content, excerpt, published, user_id, created_at, updated_at"

func scanPostRow(row *sql.Row) (model.Post, error) {
	var p model.Post
	var published int64
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &published,
		&p.UserID, &p.CreatedAt, &p.UpdatedAt)
	p.Published = published != 0
	return p, err
}

func scanPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var published int64
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &published,
			&p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Published = published != 0
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds fields for creating a post.
type CreatePostParams struct {
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
	UserID    string
}

// CreatePost inserts a post row and returns it.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	now := time.Now().UTC()
	published := 0
	if arg.Published {
		published = 1
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (title, slug, content, excerpt, published, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, published, arg.UserID, now, now)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return scanPostRow(q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = ?", id))
}

// GetPostForOwner returns the post with the given ID only if it belongs to
// the owner. A post belonging to another user scans as sql.ErrNoRows, which
// callers must treat the same as absence.
func (q *Queries) GetPostForOwner(ctx context.Context, id int64, ownerID string) (model.Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = ? AND user_id = ?", id, ownerID))
}

// UpdatePostParams holds fields for updating a post.
type UpdatePostParams struct {
	ID        int64
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
	UserID    string
}

// UpdatePost replaces the editable fields of an owned post.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	published := 0
	if arg.Published {
		published = 1
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, slug = ?, content = ?, excerpt = ?, published = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, published, time.Now().UTC(), arg.ID, arg.UserID)
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostForOwner(ctx, arg.ID, arg.UserID)
}

// UpdatePostContent replaces only the content of an owned post. Used by the
// autosave path.
func (q *Queries) UpdatePostContent(ctx context.Context, id int64, ownerID, content string) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE posts SET content = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		content, time.Now().UTC(), id, ownerID)
	return err
}

// DeletePost removes an owned post. Tag associations cascade via the
// post_tags foreign keys.
func (q *Queries) DeletePost(ctx context.Context, id int64, ownerID string) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM posts WHERE id = ? AND user_id = ?", id, ownerID)
	return err
}

// CountPostSlug returns how many posts the owner has with the given slug.
func (q *Queries) CountPostSlug(ctx context.Context, ownerID, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE user_id = ? AND slug = ?", ownerID, slug).Scan(&n)
	return n, err
}

// CountPostSlugExcluding counts the owner's posts with the given slug,
// excluding one post ID. Used when re-checking slug uniqueness on update.
func (q *Queries) CountPostSlugExcluding(ctx context.Context, ownerID, slug string, excludeID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE user_id = ? AND slug = ? AND id != ?",
		ownerID, slug, excludeID).Scan(&n)
	return n, err
}

// ListPostsForOwnerParams holds the admin post-listing filters.
type ListPostsForOwnerParams struct {
	OwnerID   string
	Search    string // matches title, content, or excerpt
	TagID     int64  // 0 means no tag filter
	Published *bool  // nil means both states
}

// ListPostsForOwner returns the owner's posts newest-first, applying the
// optional admin filters.
func (q *Queries) ListPostsForOwner(ctx context.Context, arg ListPostsForOwnerParams) ([]model.Post, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + postColumns + " FROM posts WHERE user_id = ?")
	args := []any{arg.OwnerID}

	if arg.Search != "" {
		sb.WriteString(" AND (title LIKE ? OR content LIKE ? OR excerpt LIKE ?)")
		like := "%" + arg.Search + "%"
		args = append(args, like, like, like)
	}
	if arg.TagID != 0 {
		sb.WriteString(" AND id IN (SELECT post_id FROM post_tags WHERE tag_id = ?)")
		args = append(args, arg.TagID)
	}
	if arg.Published != nil {
		sb.WriteString(" AND published = ?")
		if *arg.Published {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListPublishedPostsParams holds the public feed filters. UserID and TagID
// are optional; Limit <= 0 means no limit.
type ListPublishedPostsParams struct {
	UserID string
	TagID  int64
	Limit  int64
}

// ListPublishedPosts returns published posts newest-first, optionally scoped
// to a user and/or tag.
func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]model.Post, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + postColumns + " FROM posts WHERE published = 1")
	var args []any

	if arg.UserID != "" {
		sb.WriteString(" AND user_id = ?")
		args = append(args, arg.UserID)
	}
	if arg.TagID != 0 {
		sb.WriteString(" AND id IN (SELECT post_id FROM post_tags WHERE tag_id = ?)")
		args = append(args, arg.TagID)
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if arg.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// GetPublishedPostBySlug returns the published post with the given slug in
// the owner's namespace. Unpublished posts scan as sql.ErrNoRows.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, userID, slug string) (model.Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE user_id = ? AND slug = ? AND published = 1",
		userID, slug))
}

// GetTagsForPost returns the tags associated with a post, in insertion order.
func (q *Queries) GetTagsForPost(ctx context.Context, postID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug, t.user_id, t.created_at, t.updated_at
		 FROM tags t
		 JOIN post_tags pt ON pt.tag_id = t.id
		 WHERE pt.post_id = ?
		 ORDER BY t.id`, postID)
	if err != nil {
		return nil, err
	}
	return scanTags(rows)
}

// AddTagToPost associates a tag with a post.
func (q *Queries) AddTagToPost(ctx context.Context, postID, tagID int64) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)", postID, tagID)
	return err
}

// ClearPostTags removes all tag associations from a post.
func (q *Queries) ClearPostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = ?", postID)
	return err
}
