package bootstrap

import (
	"context"
	"errors"
	"log"
	"strings"

	"anoa.com/socialforum/internal/entity"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/pkg/password"
	"gorm.io/gorm"
)

// SeedAdminUser creates the first administrator if no account uses email yet.
func SeedAdminUser(ctx context.Context, repo userRepo.UserRepository, email, plain string, params password.Params) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plain == "" {
		return errors.New("seed admin email and password are required")
	}

	_, err := repo.FindByEmail(ctx, email)
	if err == nil {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := password.HashWithParams(plain, params)
	if err != nil {
		return err
	}

	adminUser := &entity.User{
		Username:        "admin",
		Email:           email,
		PasswordHash:    hash,
		Role:            entity.RoleAdmin,
		IsActive:        true,
		IsEmailVerified: true,
	}
	if err := repo.Create(ctx, adminUser); err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Printf("   Email: %s", email)

	return nil
}
