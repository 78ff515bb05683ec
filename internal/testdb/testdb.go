// Package testdb opens throwaway in-memory databases for package tests.
package testdb

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/database"
	"anoa.com/socialforum/pkg/password"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

// New returns a migrated in-memory sqlite database private to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, counter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CheapParams keeps argon2 fast in tests.
var CheapParams = password.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// CreateUser inserts an active user with password "secret123".
func CreateUser(t *testing.T, db *gorm.DB, username string, role entity.Role) *entity.User {
	t.Helper()

	hash, err := password.HashWithParams("secret123", CheapParams)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePost inserts an active post authored by authorID with the given status.
func CreatePost(t *testing.T, db *gorm.DB, authorID uint, status entity.PostStatus) *entity.Post {
	t.Helper()

	p := &entity.Post{
		Title:    "A post title",
		Content:  "Some content long enough",
		Category: entity.DefaultCategory,
		Images:   []string{},
		AuthorID: authorID,
		Status:   status,
		IsActive: true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
