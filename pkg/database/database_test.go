package database

import (
	"context"
	"testing"

	"anoa.com/socialforum/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	path := t.TempDir() + "/forum.db"

	db, err := Connect(Options{Driver: DriverSQLite, SQLitePath: path, MaxOpenConn: 1})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range []any{&entity.User{}, &entity.RefreshToken{}, &entity.Post{}, &entity.PostLike{}, &entity.Comment{}, &entity.CommentLike{}, &entity.Notification{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectRedisDisabled(t *testing.T) {
	assert.Nil(t, ConnectRedis(context.Background(), ""))
	assert.Nil(t, ConnectRedis(context.Background(), "not a url"))
}
