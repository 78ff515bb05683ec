package middleware

import (
	"errors"
	"strings"

	"anoa.com/socialforum/internal/entity"
	tokenService "anoa.com/socialforum/internal/modules/token/service"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	errAuthorizationRequired = apperror.Unauthorized("authorization required")
	errUserInactive          = apperror.Unauthorized("user not found or inactive")
	errInsufficientRole      = apperror.Forbidden("insufficient permissions")
)

type AuthMiddleware struct {
	tokens   tokenService.TokenService
	userRepo userRepo.UserRepository
}

func NewAuthMiddleware(tokens tokenService.TokenService, userRepo userRepo.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Authenticate resolves the bearer token on the request to an active user.
// The returned user never carries a password hash.
func (m *AuthMiddleware) Authenticate(c *gin.Context) (*entity.User, error) {
	tokenString := bearerToken(c.GetHeader("Authorization"))
	if tokenString == "" {
		return nil, errAuthorizationRequired
	}

	userID, err := m.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := m.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserInactive
		}
		return nil, apperror.Internal(err)
	}
	if !user.IsActive {
		return nil, errUserInactive
	}

	user.PasswordHash = ""
	return user, nil
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.Authenticate(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		setIdentity(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the identity when the request carries a valid token
// and otherwise continues anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := m.Authenticate(c); err == nil {
			setIdentity(c, user)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := response.GetUser(c)
		if user == nil {
			response.ResponseError(c, errAuthorizationRequired)
			return
		}

		if !CheckRole(user, roles...) {
			response.ResponseError(c, errInsufficientRole)
			return
		}

		c.Next()
	}
}

// CheckRole reports whether user holds one of roles.
func CheckRole(user *entity.User, roles ...entity.Role) bool {
	if user == nil {
		return false
	}
	return user.HasRole(roles...)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(c *gin.Context, user *entity.User) {
	c.Set(response.UserIDKey, user.ID)
	c.Set(response.UserKey, user)
}
