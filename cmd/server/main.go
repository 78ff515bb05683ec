package main

import (
	"context"
	"log"

	"anoa.com/socialforum/internal/bootstrap"
	"anoa.com/socialforum/internal/config"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/internal/server"
	"anoa.com/socialforum/pkg/database"
	"anoa.com/socialforum/pkg/password"
	"anoa.com/socialforum/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.Options{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DatabaseURL,
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		User:        cfg.DBUser,
		Password:    cfg.DBPass,
		Name:        cfg.DBName,
		SQLitePath:  cfg.SQLitePath,
		Debug:       cfg.IsDevelopment(),
		MaxOpenConn: 25,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx := context.Background()

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(ctx, userRepo.NewUserRepository(db), cfg.SeedAdminEmail, cfg.SeedAdminPassword, password.DefaultParams); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	redisClient := database.ConnectRedis(ctx, cfg.RedisURL)
	if redisClient == nil {
		log.Println("⚠️ Redis not configured, cooldowns and view dedup are disabled")
	}

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		meiliClient = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		log.Println("⚠️ MEILISEARCH_HOST not set, search falls back to the database")
	}

	var imageStorage storage.ImageStorage
	cloudCfg := storage.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		imageStorage, err = storage.NewCloudinaryStorage(cloudCfg)
		if err != nil {
			log.Fatalf("failed to initialize cloudinary storage: %v", err)
		}
	}

	srv, err := server.NewServer(cfg, db, redisClient, meiliClient, imageStorage)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}
	jobs, err := srv.StartBackgroundJobs(ctx)
	if err != nil {
		log.Fatalf("failed to start background jobs: %v", err)
	}
	defer jobs.Stop()

	log.Printf("🚀 Server listening on :%s (%s)", cfg.Port, cfg.AppEnv)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
