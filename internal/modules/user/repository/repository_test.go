package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepositoryLookups(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = repo.FindByID(ctx, 999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	exists, err := repo.ExistsByEmailOrUsername(ctx, "other@example.com", "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmailOrUsername(ctx, "other@example.com", "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepositoryUniqueness(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	testdb.CreateUser(t, db, "alice", entity.RoleRegistered)

	err := repo.Create(context.Background(), &entity.User{
		Username:     "alice",
		Email:        "fresh@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepositoryUpdates(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := testdb.CreateUser(t, db, "alice", entity.RoleRegistered)

	require.NoError(t, repo.UpdateRole(ctx, alice.ID, entity.RoleAdmin))
	require.NoError(t, repo.UpdateStatus(ctx, alice.ID, false))
	at := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, alice.ID, at))

	got, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	assert.ErrorIs(t, repo.UpdateRole(ctx, 999, entity.RoleAdmin), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, true), gorm.ErrRecordNotFound)
}

func TestUserRepositoryFindActive(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testdb.CreateUser(t, db, "admin", entity.RoleAdmin)
	testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
	bob := testdb.CreateUser(t, db, "bob", entity.RoleRegistered)
	require.NoError(t, repo.UpdateStatus(ctx, bob.ID, false))

	users, total, err := repo.FindActive(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	users, total, err = repo.FindActive(ctx, entity.RoleRegistered, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", users[0].Username)

	count, err := repo.CountActive(ctx, entity.RoleRegistered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountActive(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
