package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestModerateOnlyWinsOnce(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	admin := testdb.CreateUser(t, db, "root", entity.RoleAdmin)
	post := testdb.CreatePost(t, db, author.ID, entity.PostStatusPending)

	ok, err := repo.Moderate(ctx, post.ID, entity.PostStatusRejected, admin.ID, "spam", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Moderate(ctx, post.ID, entity.PostStatusApproved, admin.ID, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PostStatusRejected, got.Status)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.ModeratedBy)
	assert.Equal(t, admin.ID, *got.ModeratedBy)
}

func TestUpdatePendingSkipsModeratedPosts(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	admin := testdb.CreateUser(t, db, "root", entity.RoleAdmin)
	post := testdb.CreatePost(t, db, author.ID, entity.PostStatusPending)

	post.Title = "Edited while pending"
	ok, err := repo.UpdatePending(ctx, post, "title")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Moderate(ctx, post.ID, entity.PostStatusApproved, admin.ID, "", time.Now())
	require.NoError(t, err)

	post.Title = "Edited after approval"
	ok, err = repo.UpdatePending(ctx, post, "title")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited while pending", got.Title)
}

func TestToggleLikeKeepsCounterInStep(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	bob := testdb.CreateUser(t, db, "bob", entity.RoleRegistered)
	carol := testdb.CreateUser(t, db, "carol", entity.RoleRegistered)
	post := testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)

	liked, count, err := repo.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = repo.ToggleLike(ctx, post.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, count)

	liked, count, err = repo.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, count)

	var members int64
	db.Model(&entity.PostLike{}).Where("post_id = ?", post.ID).Count(&members)
	assert.Equal(t, int64(1), members)
}

func TestToggleLikeToleratesConcurrentLike(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	bob := testdb.CreateUser(t, db, "bob", entity.RoleRegistered)
	post := testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)

	// Another request by bob likes the post after this toggle found no like
	// to remove but before it inserts one.
	fired := false
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:concurrent_like", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "post_likes" {
			return
		}
		fired = true
		other := tx.Session(&gorm.Session{NewDB: true})
		assert.NoError(t, other.Create(&entity.PostLike{PostID: post.ID, UserID: bob.ID}).Error)
		assert.NoError(t, other.Model(&entity.Post{}).Where("id = ?", post.ID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error)
	}))

	liked, count, err := repo.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	var members int64
	db.Model(&entity.PostLike{}).Where("post_id = ?", post.ID).Count(&members)
	assert.Equal(t, int64(1), members)
}

func TestFindPublicByIDsKeepsOrder(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)

	a := testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)
	b := testdb.CreatePost(t, db, author.ID, entity.PostStatusPending)
	c := testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)

	posts, err := repo.FindPublicByIDs(context.Background(), []uint{c.ID, b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, c.ID, posts[0].ID)
	assert.Equal(t, a.ID, posts[1].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "alice", posts[0].Author.Username)
}

func TestSearchPublicEscapesWildcards(t *testing.T) {
	db := testdb.New(t)
	repo := NewPostRepository(db)
	author := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	p := testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)
	require.NoError(t, db.Model(p).Update("title", "100% Go").Error)
	testdb.CreatePost(t, db, author.ID, entity.PostStatusApproved)

	posts, total, err := repo.SearchPublic(context.Background(), "100%", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, p.ID, posts[0].ID)

	_, total, err = repo.SearchPublic(context.Background(), "%", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
