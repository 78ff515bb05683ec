package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/socialforum/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver      string
	DSN         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SQLitePath  string
	Debug       bool
	MaxOpenConn int
}

// Connect opens the relational store for the configured driver.
func Connect(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if opts.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if opts.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "", DriverPostgres:
		dsn := opts.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				valueOrDefault(opts.Host, "localhost"),
				valueOrDefault(opts.User, "postgres"),
				opts.Password,
				valueOrDefault(opts.Name, "social_forum"),
				valueOrDefault(opts.Port, "5432"),
			)
		}
		return postgres.Open(dsn), nil
	case DriverMySQL:
		dsn := opts.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				valueOrDefault(opts.User, "root"),
				opts.Password,
				valueOrDefault(opts.Host, "localhost"),
				valueOrDefault(opts.Port, "3306"),
				valueOrDefault(opts.Name, "social_forum"),
			)
		}
		return mysql.Open(dsn), nil
	case DriverSQLite:
		path := valueOrDefault(opts.SQLitePath, "social_forum.db")
		return sqlite.Open(path + "?_foreign_keys=1"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.RefreshToken{},
		&entity.Post{},
		&entity.PostLike{},
		&entity.Comment{},
		&entity.CommentLike{},
		&entity.Notification{},
	)
}

// ConnectRedis returns nil when url is empty or the server is unreachable;
// callers treat a nil client as "feature disabled".
func ConnectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: redis unavailable, cooldowns and view dedup disabled: %v", err)
		_ = client.Close()
		return nil
	}

	return client
}

func valueOrDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
