package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/socialforum/internal/entity"
	token "anoa.com/socialforum/internal/modules/token/service"
	"anoa.com/socialforum/internal/modules/user/dto"
	"anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/password"
	"gorm.io/gorm"
)

const tokenType = "Bearer"

var (
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)
	errUserExists         = apperror.Validation("user with this email or username already exists")
	errUserNotFound       = apperror.NotFound("user not found")
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uint) (*entity.User, error)
}

type authService struct {
	repo       repository.UserRepository
	tokens     token.TokenService
	hashParams password.Params
	now        func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens token.TokenService, hashParams password.Params) AuthService {
	return &authService{
		repo:       repo,
		tokens:     tokens,
		hashParams: hashParams,
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if exists {
		return nil, errUserExists
	}

	hash, err := password.HashWithParams(input.Password, s.hashParams)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleRegistered,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errUserExists
		}
		return nil, apperror.Internal(err)
	}

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal(err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := password.Verify(user.PasswordHash, input.Password)
	if err != nil {
		log.Printf("Unreadable password hash for user %d: %v", user.ID, err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("Failed to update last login for user %d: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	access, expiresAt, err := s.tokens.RedeemRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   tokenType,
		ExpiresIn:   s.secondsUntil(expiresAt),
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeRefreshToken(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) buildAuthResponse(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken:      access,
		TokenType:        tokenType,
		ExpiresIn:        s.secondsUntil(accessExp),
		User:             user,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *authService) secondsUntil(t time.Time) int64 {
	return int64(t.Sub(s.now()).Seconds())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
