package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/modules/admin/dto"
	postRepo "anoa.com/socialforum/internal/modules/post/repository"
	tokenRepo "anoa.com/socialforum/internal/modules/token/repository"
	token "anoa.com/socialforum/internal/modules/token/service"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/internal/testdb"
	"anoa.com/socialforum/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db     *gorm.DB
	svc    AdminService
	tokens token.TokenService
	admin  *entity.User
	alice  *entity.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.New(t)

	tokens, err := token.NewTokenService(tokenRepo.NewRefreshTokenRepository(db), token.Options{Secret: "test-secret"})
	require.NoError(t, err)

	return &env{
		db:     db,
		tokens: tokens,
		svc:    NewAdminService(userRepo.NewUserRepository(db), postRepo.NewPostRepository(db), tokens),
		admin:  testdb.CreateUser(t, db, "root", entity.RoleAdmin),
		alice:  testdb.CreateUser(t, db, "alice", entity.RoleRegistered),
	}
}

func TestUpdateRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.svc.UpdateRole(ctx, e.admin.ID, e.alice.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Empty(t, u.PasswordHash)

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, e.alice.ID, "moderator")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = e.svc.UpdateRole(ctx, e.admin.ID, 9999, "registered")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.UpdateRole(context.Background(), e.admin.ID, e.admin.ID, "registered")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	var stored entity.User
	require.NoError(t, e.db.First(&stored, e.admin.ID).Error)
	assert.Equal(t, entity.RoleAdmin, stored.Role)

	u, err := e.svc.UpdateRole(context.Background(), e.admin.ID, e.admin.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
}

func TestDeactivateRevokesRefreshTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	refresh, _, err := e.tokens.IssueRefreshToken(ctx, e.alice.ID)
	require.NoError(t, err)

	u, err := e.svc.UpdateStatus(ctx, e.admin.ID, e.alice.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, _, err = e.tokens.RedeemRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, token.ErrRefreshNotFound)

	u, err = e.svc.UpdateStatus(ctx, e.admin.ID, e.alice.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.UpdateStatus(context.Background(), e.admin.ID, e.admin.ID, false)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGetUsersListsActiveOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	bob := testdb.CreateUser(t, e.db, "bob", entity.RoleRegistered)
	_, err := e.svc.UpdateStatus(ctx, e.admin.ID, bob.ID, false)
	require.NoError(t, err)

	all, err := e.svc.GetUsers(ctx, dto.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.TotalItems)
	for _, u := range all.Users {
		assert.Empty(t, u.PasswordHash)
	}

	admins, err := e.svc.GetUsers(ctx, dto.UserFilter{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, admins.Users, 1)
	assert.Equal(t, "root", admins.Users[0].Username)
}

func TestGetStatistics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	testdb.CreatePost(t, e.db, e.alice.ID, entity.PostStatusPending)
	testdb.CreatePost(t, e.db, e.alice.ID, entity.PostStatusApproved)
	approved := testdb.CreatePost(t, e.db, e.alice.ID, entity.PostStatusApproved)
	rejected := testdb.CreatePost(t, e.db, e.alice.ID, entity.PostStatusRejected)
	require.NoError(t, e.db.Model(&entity.Post{}).Where("id = ?", rejected.ID).Update("is_active", false).Error)

	stats, err := e.svc.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, dto.UserStatistics{Total: 2, Admin: 1, Registered: 1}, stats.Users)
	assert.Equal(t, dto.PostStatistics{Total: 3, Pending: 1, Approved: 2, Rejected: 1}, stats.Posts)

	require.Len(t, stats.RecentPosts, 3)
	assert.Equal(t, approved.ID, stats.RecentPosts[0].ID)
	require.NotNil(t, stats.RecentPosts[0].Author)
	assert.Equal(t, "alice", stats.RecentPosts[0].Author.Username)
	assert.WithinDuration(t, time.Now(), stats.RecentPosts[0].CreatedAt, time.Minute)
}
