package post

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-feed/cache"
	"github.com/KOMKZ/go-yogan-feed/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, CreateInput{AuthorID: 1, Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.svc.Create(ctx, CreateInput{Title: "no author"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.svc.Create(ctx, CreateInput{AuthorID: 1, Title: "t", Status: "hidden"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := e.svc.Create(ctx, CreateInput{AuthorID: 1, Title: " hello ", Category: " Tech "})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Title)
	assert.Equal(t, "tech", p.Category)
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, []string{EventPostCreated}, e.dispatched())
}

func TestService_CreateInvalidatesFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, 3, 1, "")

	before, err := e.feed.GetPage(ctx, feed.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), before.TotalCount)

	created := e.seed(t, 1, 1, "")[0]
	after, err := e.feed.GetPage(ctx, feed.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), after.TotalCount)
	assert.Equal(t, created.ID, after.Items[0].ID)
}

func TestService_GetCachedAndInvalidatedOnUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	item, err := e.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, item.Title)

	_, ok := e.store.Get(ctx, cache.ItemKey(p.ID))
	assert.True(t, ok)

	title := "renamed"
	updated, err := e.svc.Update(ctx, p.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	_, ok = e.store.Get(ctx, cache.ItemKey(p.ID))
	assert.False(t, ok, "item key dropped after update")

	item, err = e.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", item.Title)

	_, err = e.svc.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestService_UpdateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	empty := ""
	_, err := e.svc.Update(ctx, p.ID, UpdateInput{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	same, err := e.svc.Update(ctx, p.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, p.ID, same.ID)

	title := "x"
	_, err = e.svc.Update(ctx, 404, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestService_ChangeStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	_, err := e.svc.ChangeStatus(ctx, p.ID, "gone")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := e.svc.ChangeStatus(ctx, p.ID, "Archived")
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, updated.Status)

	page, err := e.feed.GetPage(ctx, feed.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestService_FeatureAndExpire(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	posts := e.seed(t, 3, 1, "")

	past := e.clock.Now().Add(-time.Minute)
	_, err := e.svc.Feature(ctx, posts[0].ID, &past)
	assert.ErrorIs(t, err, ErrInvalidInput)

	until := e.clock.Now().Add(time.Minute)
	featured, err := e.svc.Feature(ctx, posts[0].ID, &until)
	require.NoError(t, err)
	assert.True(t, featured.IsFeatured)
	require.NotNil(t, featured.FeaturedAt)

	page, err := e.feed.GetPage(ctx, feed.PageRequest{FeaturedFirst: true})
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, page.Items[0].ID)
	assert.Equal(t, 1, page.FeaturedCount)

	n, err := e.svc.ExpireFeatured(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	e.clock.Advance(2 * time.Minute)
	n, err = e.svc.ExpireFeatured(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, e.dispatched(), EventPostUnfeatured)

	page, err = e.feed.GetPage(ctx, feed.PageRequest{FeaturedFirst: true})
	require.NoError(t, err)
	assert.Zero(t, page.FeaturedCount)
	assert.Equal(t, posts[2].ID, page.Items[0].ID)
}

func TestService_Unfeature(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]
	e.feature(t, p.ID, nil)

	updated, err := e.svc.Unfeature(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsFeatured)

	featured, err := e.feed.GetFeatured(ctx, feed.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, featured.Items)
}

func TestService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	posts := e.seed(t, 2, 1, "")

	_, err := e.feed.GetPage(ctx, feed.PageRequest{})
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, posts[0].ID))
	assert.ErrorIs(t, e.svc.Delete(ctx, posts[0].ID), ErrPostNotFound)

	page, err := e.feed.GetPage(ctx, feed.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{posts[1].ID}, itemIDs(page.Items))
}

func TestService_LikeUnlike(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	require.NoError(t, e.svc.Like(ctx, p.ID, 5))
	assert.ErrorIs(t, e.svc.Like(ctx, p.ID, 5), ErrAlreadyLiked)
	assert.ErrorIs(t, e.svc.Like(ctx, 404, 5), ErrPostNotFound)
	assert.ErrorIs(t, e.svc.Like(ctx, p.ID, 0), ErrInvalidInput)

	item, err := e.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.LikeCount)

	require.NoError(t, e.svc.Unlike(ctx, p.ID, 5))
	assert.ErrorIs(t, e.svc.Unlike(ctx, p.ID, 5), ErrNotLiked)

	item, err = e.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, item.LikeCount, "cached item invalidated by unlike")
}

func TestService_Comments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	_, err := e.svc.AddComment(ctx, p.ID, CommentInput{AuthorID: 2, Body: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.svc.AddComment(ctx, 404, CommentInput{AuthorID: 2, Body: "hi"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	var ids []uint64
	for _, body := range []string{"first", "second", "third"} {
		e.clock.Advance(time.Second)
		c, err := e.svc.AddComment(ctx, p.ID, CommentInput{AuthorID: 2, Body: body})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	comments, total, err := e.svc.ListComments(ctx, p.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)

	require.NoError(t, e.svc.DeleteComment(ctx, ids[0]))
	assert.ErrorIs(t, e.svc.DeleteComment(ctx, ids[0]), ErrCommentNotFound)

	item, err := e.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.CommentCount)

	_, _, err = e.svc.ListComments(ctx, 404, 1, 10)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestService_FollowFeed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seed(t, 2, 1, "")
	e.seed(t, 3, 2, "")

	assert.ErrorIs(t, e.svc.Follow(ctx, 7, 7), ErrSelfFollow)
	assert.ErrorIs(t, e.svc.Follow(ctx, 0, 7), ErrInvalidInput)

	page, err := e.feed.GetFollowing(ctx, 7, feed.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)

	require.NoError(t, e.svc.Follow(ctx, 7, 2))
	require.NoError(t, e.svc.Follow(ctx, 7, 2), "idempotent")

	page, err = e.feed.GetFollowing(ctx, 7, feed.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)

	followed := 0
	for _, name := range e.dispatched() {
		if name == EventUserFollowed {
			followed++
		}
	}
	assert.Equal(t, 1, followed)

	require.NoError(t, e.svc.Unfollow(ctx, 7, 2))
	require.NoError(t, e.svc.Unfollow(ctx, 7, 2))
	page, err = e.feed.GetFollowing(ctx, 7, feed.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestService_RecordView(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.seed(t, 1, 1, "")[0]

	require.NoError(t, e.svc.RecordView(ctx, p.ID))
	require.NoError(t, e.svc.RecordView(ctx, p.ID))
	assert.ErrorIs(t, e.svc.RecordView(ctx, 404), ErrPostNotFound)

	items, _, err := e.svc.Repository().QueryRegular(ctx, published, feed.SortMostViewed, nil, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), items[0].ViewCount)
}

func TestService_Search(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.Create(ctx, CreateInput{AuthorID: 1, Title: "Caching in Go"})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	_, err = e.svc.Create(ctx, CreateInput{AuthorID: 1, Title: "Gardening"})
	require.NoError(t, err)

	page, err := e.feed.Search(ctx, feed.PageRequest{Filters: feed.Filters{Query: "CACHING"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
}
