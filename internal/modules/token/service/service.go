package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/modules/token/repository"
	"anoa.com/socialforum/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authentication failures. All map to 401 and stay distinguishable with errors.Is.
var (
	ErrInvalidToken    = apperror.New(http.StatusUnauthorized, "invalid token", apperror.ErrUnauthorized)
	ErrTokenExpired    = apperror.New(http.StatusUnauthorized, "token expired", apperror.ErrUnauthorized)
	ErrRefreshNotFound = apperror.New(http.StatusUnauthorized, "invalid refresh token", apperror.ErrUnauthorized)
	ErrRefreshExpired  = apperror.New(http.StatusUnauthorized, "refresh token expired", apperror.ErrUnauthorized)
)

const refreshTokenBytes = 40

type TokenService interface {
	IssueAccessToken(userID uint) (string, time.Time, error)
	IssueRefreshToken(ctx context.Context, userID uint) (string, time.Time, error)
	ValidateAccessToken(token string) (uint, error)
	RedeemRefreshToken(ctx context.Context, token string) (string, time.Time, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type tokenService struct {
	repo       repository.RefreshTokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(repo repository.RefreshTokenRepository, opts Options) (TokenService, error) {
	if opts.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &tokenService{
		repo:       repo,
		secret:     []byte(opts.Secret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
	}, nil
}

func (s *tokenService) IssueAccessToken(userID uint) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperror.Internal(fmt.Errorf("sign access token: %w", err))
	}

	return signed, expiresAt, nil
}

func (s *tokenService) IssueRefreshToken(ctx context.Context, userID uint) (string, time.Time, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, apperror.Internal(fmt.Errorf("generate refresh token: %w", err))
	}
	raw := hex.EncodeToString(buf)
	expiresAt := s.now().Add(s.refreshTTL)

	record := &entity.RefreshToken{
		TokenHash: hashToken(raw),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", time.Time{}, apperror.Internal(fmt.Errorf("store refresh token: %w", err))
	}

	return raw, expiresAt, nil
}

func (s *tokenService) ValidateAccessToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}

// RedeemRefreshToken mints a fresh access token. The refresh token itself is
// left in place; expired rows are removed before failing.
func (s *tokenService) RedeemRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	if token == "" {
		return "", time.Time{}, ErrRefreshNotFound
	}

	hash := hashToken(token)
	record, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, ErrRefreshNotFound
		}
		return "", time.Time{}, apperror.Internal(err)
	}

	if record.IsExpired(s.now()) {
		if err := s.repo.DeleteByHash(ctx, hash); err != nil {
			return "", time.Time{}, apperror.Internal(err)
		}
		return "", time.Time{}, ErrRefreshExpired
	}

	return s.IssueAccessToken(record.UserID)
}

func (s *tokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteByHash(ctx, hashToken(token)); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *tokenService) RevokeAllForUser(ctx context.Context, userID uint) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *tokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
