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

const tagColumns = "id, name, slug, user_id, created_at, updated_at"

func scanTagRow(row *sql.Row) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	defer rows.Close()
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateTagParams holds fields for creating a tag.
type CreateTagParams struct {
	Name   string
	Slug   string
	UserID string
}

// CreateTag inserts a tag row and returns it.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (model.Tag, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO tags (name, slug, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		arg.Name, arg.Slug, arg.UserID, now, now)
	if err != nil {
		return model.Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return scanTagRow(q.db.QueryRowContext(ctx,
		"SELECT "+tagColumns+" FROM tags WHERE id = ?", id))
}

// GetTagForOwner returns the tag with the given ID only if it belongs to the
// owner.
func (q *Queries) GetTagForOwner(ctx context.Context, id int64, ownerID string) (model.Tag, error) {
	return scanTagRow(q.db.QueryRowContext(ctx,
		"SELECT "+tagColumns+" FROM tags WHERE id = ? AND user_id = ?", id, ownerID))
}

// GetTagBySlug returns the tag with the given slug in the owner's namespace.
func (q *Queries) GetTagBySlug(ctx context.Context, ownerID, slug string) (model.Tag, error) {
	return scanTagRow(q.db.QueryRowContext(ctx,
		"SELECT "+tagColumns+" FROM tags WHERE user_id = ? AND slug = ?", ownerID, slug))
}

// UpdateTag replaces the name and slug of an owned tag.
func (q *Queries) UpdateTag(ctx context.Context, id int64, ownerID, name, slug string) (model.Tag, error) {
	_, err := q.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		name, slug, time.Now().UTC(), id, ownerID)
	if err != nil {
		return model.Tag{}, err
	}
	return q.GetTagForOwner(ctx, id, ownerID)
}

// DeleteTag removes an owned tag. Post associations cascade via post_tags;
// the posts themselves are untouched.
func (q *Queries) DeleteTag(ctx context.Context, id int64, ownerID string) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM tags WHERE id = ? AND user_id = ?", id, ownerID)
	return err
}

// CountTagsForOwner returns how many tags the owner has.
func (q *Queries) CountTagsForOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE user_id = ?", ownerID).Scan(&n)
	return n, err
}

// CountTagNameOrSlugParams holds arguments for tag uniqueness checks.
type CountTagNameOrSlugParams struct {
	OwnerID   string
	Name      string
	Slug      string
	ExcludeID int64 // 0 excludes nothing
}

// CountTagNameOrSlug counts the owner's tags colliding with the given name
// or slug, optionally excluding one tag ID.
func (q *Queries) CountTagNameOrSlug(ctx context.Context, arg CountTagNameOrSlugParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE user_id = ? AND (name = ? OR slug = ?) AND id != ?",
		arg.OwnerID, arg.Name, arg.Slug, arg.ExcludeID).Scan(&n)
	return n, err
}

// CountOwnedTags counts how many of the given tag IDs belong to the owner.
// Used to validate tag references all-or-nothing before association.
func (q *Queries) CountOwnedTags(ctx context.Context, ownerID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}
	var n int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE user_id = ? AND id IN ("+placeholders+")",
		args...).Scan(&n)
	return n, err
}

// ListTagsForOwner returns all of the owner's tags sorted by name.
func (q *Queries) ListTagsForOwner(ctx context.Context, ownerID string) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+tagColumns+" FROM tags WHERE user_id = ? ORDER BY name", ownerID)
	if err != nil {
		return nil, err
	}
	return scanTags(rows)
}

// ListPublishedTagCounts returns tags that have at least one published post,
// annotated with the published-post count, sorted by count descending with
// ties broken by insertion order. An empty userID spans all owners.
func (q *Queries) ListPublishedTagCounts(ctx context.Context, userID string) ([]model.TagWithCount, error) {
	var sb strings.Builder
	sb.WriteString(
		`SELECT t.id, t.name, t.slug, t.user_id, t.created_at, t.updated_at, COUNT(p.id) AS post_count
		 FROM tags t
		 JOIN post_tags pt ON pt.tag_id = t.id
		 JOIN posts p ON p.id = pt.post_id AND p.published = 1`)
	var args []any
	if userID != "" {
		sb.WriteString(" WHERE t.user_id = ? AND p.user_id = ?")
		args = append(args, userID, userID)
	}
	sb.WriteString(" GROUP BY t.id ORDER BY post_count DESC, t.id ASC")

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.TagWithCount
	for rows.Next() {
		var t model.TagWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CountPublishedPostsForTag counts published posts carrying the tag.
func (q *Queries) CountPublishedPostsForTag(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p
		 JOIN post_tags pt ON pt.post_id = p.id
		 WHERE pt.tag_id = ? AND p.published = 1`, tagID).Scan(&n)
	return n, err
}
