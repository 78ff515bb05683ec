package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/modules/token/repository"
	"anoa.com/socialforum/internal/testdb"
	"anoa.com/socialforum/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T) (TokenService, *gorm.DB, *clock, *entity.User) {
	t.Helper()
	db := testdb.New(t)
	clk := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	svc, err := NewTokenService(repository.NewRefreshTokenRepository(db), Options{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clk.now,
	})
	require.NoError(t, err)

	return svc, db, clk, testdb.CreateUser(t, db, "alice", entity.RoleRegistered)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(nil, Options{})
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc, _, clk, user := setup(t)

	token, expiresAt, err := svc.IssueAccessToken(user.ID)
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(15*time.Minute), expiresAt)

	userID, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestAccessTokensCarryUniqueID(t *testing.T) {
	svc, _, _, user := setup(t)

	a, _, err := svc.IssueAccessToken(user.ID)
	require.NoError(t, err)
	b, _, err := svc.IssueAccessToken(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	svc, _, clk, user := setup(t)

	token, _, err := svc.IssueAccessToken(user.ID)
	require.NoError(t, err)

	clk.t = clk.t.Add(16 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc, _, clk, _ := setup(t)

	_, err := svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService(nil, Options{Secret: "other-secret", Now: clk.now})
	require.NoError(t, err)
	forged, _, err := other.IssueAccessToken(1)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	svc, _, clk, _ := setup(t)

	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemRefreshToken(t *testing.T) {
	svc, db, _, user := setup(t)
	ctx := context.Background()

	refresh, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, refresh, refreshTokenBytes*2)

	var stored entity.RefreshToken
	require.NoError(t, db.First(&stored).Error)
	assert.NotEqual(t, refresh, stored.TokenHash)

	access, _, err := svc.RedeemRefreshToken(ctx, refresh)
	require.NoError(t, err)

	userID, err := svc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// redemption does not consume the refresh token
	_, _, err = svc.RedeemRefreshToken(ctx, refresh)
	assert.NoError(t, err)
}

func TestRedeemExpiredRefreshTokenRemovesRow(t *testing.T) {
	svc, db, clk, user := setup(t)
	ctx := context.Background()

	refresh, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	clk.t = clk.t.Add(8 * 24 * time.Hour)

	_, _, err = svc.RedeemRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrRefreshExpired)

	var count int64
	db.Model(&entity.RefreshToken{}).Count(&count)
	assert.Zero(t, count)

	_, _, err = svc.RedeemRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRevokeRefreshTokenIsIdempotent(t *testing.T) {
	svc, _, _, user := setup(t)
	ctx := context.Background()

	refresh, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, refresh))
	require.NoError(t, svc.RevokeRefreshToken(ctx, refresh))
	require.NoError(t, svc.RevokeRefreshToken(ctx, ""))

	_, _, err = svc.RedeemRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRevokeAllForUser(t *testing.T) {
	svc, db, _, user := setup(t)
	ctx := context.Background()
	other := testdb.CreateUser(t, db, "bob", entity.RoleRegistered)

	a, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	b, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	keep, _, err := svc.IssueRefreshToken(ctx, other.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForUser(ctx, user.ID))

	for _, tok := range []string{a, b} {
		_, _, err = svc.RedeemRefreshToken(ctx, tok)
		assert.ErrorIs(t, err, ErrRefreshNotFound)
	}
	_, _, err = svc.RedeemRefreshToken(ctx, keep)
	assert.NoError(t, err)
}

func TestPurgeExpired(t *testing.T) {
	svc, _, clk, user := setup(t)
	ctx := context.Background()

	_, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	clk.t = clk.t.Add(6 * 24 * time.Hour)
	fresh, _, err := svc.IssueRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	clk.t = clk.t.Add(2 * 24 * time.Hour)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, _, err = svc.RedeemRefreshToken(ctx, fresh)
	assert.NoError(t, err)
}
