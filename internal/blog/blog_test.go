// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-blog-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	require.NoError(t, f.Close())

	db, err := store.NewDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(db))
	return db
}

func testUser(t *testing.T, db *sql.DB, email string) model.User {
	t.Helper()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		ID:    uuid.NewString(),
		Name:  "Writer",
		Email: email,
		Role:  model.RoleAuthor,
	})
	require.NoError(t, err)
	return user
}

func TestPostService_CreateDefaults(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	post, err := svc.Create(ctx, owner.ID, PostInput{
		Title: "Hello World", Slug: "hello-world", Content: "<p>Hi.</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.Published, "posts default to unpublished")
	assert.Empty(t, post.Tags)
}

func TestPostService_CreateValidation(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, PostInput{Title: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "Ok", Slug: "Bad Slug!", Content: "x"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "Ok", Content: "x"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field, "the slug is explicit, never derived")

	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "Ok", Slug: "ok"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestPostService_SlugConflict(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	other := testUser(t, db, "other@example.com")
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, PostInput{Title: "Taken", Slug: "taken", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "Taken Again", Slug: "taken", Content: "x"})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "slug", cerr.Field)

	// Slugs are per-owner: another user may reuse the same slug.
	_, err = svc.Create(ctx, other.ID, PostInput{Title: "Taken", Slug: "taken", Content: "x"})
	assert.NoError(t, err)
}

func TestPostService_UpdateKeepingSlugIsNotAConflict(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	post, err := svc.Create(ctx, owner.ID, PostInput{Title: "Stable", Slug: "stable", Content: "x"})
	require.NoError(t, err)

	// Saving without renaming must not conflict with itself.
	updated, err := svc.Update(ctx, owner.ID, post.ID, PostInput{
		Title: "Stable, Edited", Slug: "stable", Content: "x", Published: true,
	})
	require.NoError(t, err)
	assert.True(t, updated.Published)

	// Renaming onto another post's slug does conflict.
	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "Second", Slug: "second", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, owner.ID, post.ID, PostInput{Title: "Stable", Slug: "second", Content: "x"})
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestPostService_OwnershipIsNotFound(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	intruder := testUser(t, db, "intruder@example.com")
	ctx := context.Background()

	post, err := svc.Create(ctx, owner.ID, PostInput{Title: "Private", Slug: "private", Content: "x"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, intruder.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, intruder.ID, post.ID, PostInput{Title: "Hijack", Slug: "private", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, intruder.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.SaveContent(ctx, intruder.ID, post.ID, "<p>stolen</p>")
	assert.ErrorIs(t, err, ErrNotFound)

	// The owner still sees the untouched post.
	got, err := svc.Get(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
}

func TestPostService_TagAssociation(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db, nil)
	tags := NewTagService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	other := testUser(t, db, "other@example.com")
	ctx := context.Background()

	goTag, err := tags.Create(ctx, owner.ID, TagInput{Name: "Go", Slug: "go"})
	require.NoError(t, err)
	webTag, err := tags.Create(ctx, owner.ID, TagInput{Name: "Web", Slug: "web"})
	require.NoError(t, err)
	foreign, err := tags.Create(ctx, other.ID, TagInput{Name: "Foreign", Slug: "foreign"})
	require.NoError(t, err)

	// A foreign tag in the set fails the whole request.
	_, err = posts.Create(ctx, owner.ID, PostInput{
		Title: "Tagged", Slug: "tagged", Content: "x", TagIDs: []int64{goTag.ID, foreign.ID},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tag_ids", verr.Field)

	post, err := posts.Create(ctx, owner.ID, PostInput{
		Title: "Tagged", Slug: "tagged", Content: "x", TagIDs: []int64{goTag.ID, webTag.ID},
	})
	require.NoError(t, err)
	require.Len(t, post.Tags, 2)

	// Reassociation replaces the set.
	updated, err := posts.Update(ctx, owner.ID, post.ID, PostInput{
		Title: "Tagged", Slug: post.Slug, Content: "x", TagIDs: []int64{webTag.ID},
	})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "Web", updated.Tags[0].Name)

	// Nil TagIDs leaves associations untouched.
	updated, err = posts.Update(ctx, owner.ID, post.ID, PostInput{
		Title: "Tagged, Renamed", Slug: post.Slug, Content: "x",
	})
	require.NoError(t, err)
	assert.Len(t, updated.Tags, 1)

	// Empty set clears them.
	updated, err = posts.Update(ctx, owner.ID, post.ID, PostInput{
		Title: "Tagged", Slug: post.Slug, Content: "x", TagIDs: []int64{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestPostService_DeleteKeepsTags(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db, nil)
	tags := NewTagService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	tag, err := tags.Create(ctx, owner.ID, TagInput{Name: "Keeper", Slug: "keeper"})
	require.NoError(t, err)
	post, err := posts.Create(ctx, owner.ID, PostInput{Title: "Doomed", Slug: "doomed", Content: "x", TagIDs: []int64{tag.ID}})
	require.NoError(t, err)

	require.NoError(t, posts.Delete(ctx, owner.ID, post.ID))

	_, err = posts.Get(ctx, owner.ID, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The tag survives its post.
	_, err = tags.Get(ctx, owner.ID, tag.ID)
	assert.NoError(t, err)
}

func TestPostService_PublishesSignals(t *testing.T) {
	db := testDB(t)
	bus := service.NewBus()
	svc := NewPostService(db, bus)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	ch, cancel := bus.Subscribe(service.TopicPostsChanged)
	defer cancel()

	post, err := svc.Create(ctx, owner.ID, PostInput{Title: "Signal", Slug: "signal", Content: "x"})
	require.NoError(t, err)

	select {
	case sig := <-ch:
		assert.Equal(t, owner.ID, sig.UserID)
		assert.Equal(t, post.ID, sig.EntityID)
	default:
		t.Fatal("no signal published on create")
	}
}

func TestTagService_Quota(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	other := testUser(t, db, "other@example.com")
	ctx := context.Background()

	for i := 0; i < model.MaxTagsPerUser; i++ {
		_, err := svc.Create(ctx, owner.ID, TagInput{
			Name: fmt.Sprintf("Tag %d", i), Slug: fmt.Sprintf("tag-%d", i),
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, owner.ID, TagInput{Name: "One Too Many", Slug: "one-too-many"})
	assert.ErrorIs(t, err, ErrTagQuotaExceeded)

	// The quota is per user.
	_, err = svc.Create(ctx, other.ID, TagInput{Name: "Fresh Start", Slug: "fresh-start"})
	assert.NoError(t, err)
}

func TestTagService_NameConflict(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	created, err := svc.Create(ctx, owner.ID, TagInput{Name: "Music", Slug: "music"})
	require.NoError(t, err)
	assert.Equal(t, "music", created.Slug)

	_, err = svc.Create(ctx, owner.ID, TagInput{Name: "Music", Slug: "music-2"})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)

	// A different name landing on the same slug also conflicts.
	_, err = svc.Create(ctx, owner.ID, TagInput{Name: "Sounds", Slug: "music"})
	assert.ErrorAs(t, err, &cerr)

	// Both fields are required.
	var verr *ValidationError
	_, err = svc.Create(ctx, owner.ID, TagInput{Name: "No Slug"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)
}

func TestTagService_UpdateExcludesSelf(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	tag, err := svc.Create(ctx, owner.ID, TagInput{Name: "Old Name", Slug: "old-name"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, TagInput{Name: "Taken", Slug: "taken"})
	require.NoError(t, err)

	// Renaming onto itself is allowed.
	renamed, err := svc.Update(ctx, owner.ID, tag.ID, TagInput{Name: "Old name", Slug: "old-name"})
	require.NoError(t, err)
	assert.Equal(t, "old-name", renamed.Slug)

	// Renaming onto another tag's name conflicts.
	var cerr *ConflictError
	_, err = svc.Update(ctx, owner.ID, tag.ID, TagInput{Name: "Taken", Slug: "taken-too"})
	assert.ErrorAs(t, err, &cerr)
}

func TestProfileService_LazyCreate(t *testing.T) {
	db := testDB(t)
	svc := NewProfileService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	profile, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Writer's blog", profile.Title)

	// Second read returns the same row, not a new one.
	again, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestProfileService_BioLimits(t *testing.T) {
	db := testDB(t)
	svc := NewProfileService(db, nil)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	profile, err := svc.Update(ctx, owner, ProfileInput{
		Title: "Notes",
		Bio:   []string{"one", "", "  two  ", "three", "four"},
	})
	require.NoError(t, err)

	lines := profile.BioLines()
	require.Len(t, lines, model.MaxBioLines, "bio caps at three lines, empties dropped")
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestFeedService_PublishedOnly(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db, nil)
	feed := NewFeedService(db)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	_, err := posts.Create(ctx, owner.ID, PostInput{Title: "Live", Slug: "live", Content: "x", Published: true})
	require.NoError(t, err)
	draft, err := posts.Create(ctx, owner.ID, PostInput{Title: "Draft", Slug: "draft", Content: "x"})
	require.NoError(t, err)

	list, err := feed.ListPublishedPosts(ctx, FeedInput{UserID: owner.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Live", list[0].Title)

	// A draft is invisible even with an exact slug match.
	_, err = feed.GetPublishedPost(ctx, owner.ID, draft.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = feed.GetPublishedPost(ctx, owner.ID, "live")
	assert.NoError(t, err)
}

func TestFeedService_TagCountsOrdering(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db, nil)
	tags := NewTagService(db, nil)
	feed := NewFeedService(db)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	busy, err := tags.Create(ctx, owner.ID, TagInput{Name: "Busy", Slug: "busy"})
	require.NoError(t, err)
	quiet, err := tags.Create(ctx, owner.ID, TagInput{Name: "Quiet", Slug: "quiet"})
	require.NoError(t, err)
	_, err = tags.Create(ctx, owner.ID, TagInput{Name: "Silent", Slug: "silent"})
	require.NoError(t, err)

	for i, tagIDs := range [][]int64{
		{busy.ID},
		{busy.ID, quiet.ID},
	} {
		_, err = posts.Create(ctx, owner.ID, PostInput{
			Title: fmt.Sprintf("Post %d", i), Slug: fmt.Sprintf("post-%d", i),
			Content: "x", Published: true, TagIDs: tagIDs,
		})
		require.NoError(t, err)
	}

	counts, err := feed.ListTags(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2, "tags with no published posts are excluded")
	assert.Equal(t, "Busy", counts[0].Name)
	assert.EqualValues(t, 2, counts[0].PostCount)
	assert.Equal(t, "Quiet", counts[1].Name)
	assert.EqualValues(t, 1, counts[1].PostCount)
}

func TestFeedService_GetTagWithPosts(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db, nil)
	tags := NewTagService(db, nil)
	feed := NewFeedService(db)
	owner := testUser(t, db, "owner@example.com")
	ctx := context.Background()

	tag, err := tags.Create(ctx, owner.ID, TagInput{Name: "Go Notes", Slug: "go-notes"})
	require.NoError(t, err)

	_, err = posts.Create(ctx, owner.ID, PostInput{
		Title: "Visible", Slug: "visible", Content: "x", Published: true, TagIDs: []int64{tag.ID},
	})
	require.NoError(t, err)
	_, err = posts.Create(ctx, owner.ID, PostInput{
		Title: "Hidden", Slug: "hidden", Content: "x", TagIDs: []int64{tag.ID},
	})
	require.NoError(t, err)

	got, tagged, err := feed.GetTagWithPosts(ctx, owner.ID, "go-notes")
	require.NoError(t, err)
	assert.Equal(t, "Go Notes", got.Name)
	assert.EqualValues(t, 1, got.PostCount)
	require.Len(t, tagged, 1, "drafts stay out of the tag archive")
	assert.Equal(t, "Visible", tagged[0].Title)

	_, _, err = feed.GetTagWithPosts(ctx, owner.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidationAndConflictErrorMessages(t *testing.T) {
	verr := NewValidationError("title", "title is required")
	assert.Equal(t, "title: title is required", verr.Error())

	cerr := NewConflictError("post", "slug", "hello")
	assert.Contains(t, cerr.Error(), `slug "hello"`)

	assert.False(t, errors.Is(verr, ErrNotFound))
}
