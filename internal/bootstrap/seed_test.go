package bootstrap

import (
	"context"
	"testing"

	"anoa.com/socialforum/internal/entity"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/internal/testdb"
	"anoa.com/socialforum/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdminUserIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	repo := userRepo.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, SeedAdminUser(ctx, repo, "Admin@Example.com", "admin123", testdb.CheapParams))
	require.NoError(t, SeedAdminUser(ctx, repo, "admin@example.com", "admin123", testdb.CheapParams))

	var admins []entity.User
	require.NoError(t, db.Where("role = ?", entity.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)

	ok, err := password.Verify(admins[0].PasswordHash, "admin123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeedAdminUserNeedsCredentials(t *testing.T) {
	db := testdb.New(t)
	repo := userRepo.NewUserRepository(db)

	assert.Error(t, SeedAdminUser(context.Background(), repo, "", "x", testdb.CheapParams))
}
