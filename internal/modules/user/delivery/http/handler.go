package handler

import (
	"errors"
	"net/http"
	"time"

	token "anoa.com/socialforum/internal/modules/token/service"
	"anoa.com/socialforum/internal/modules/user/dto"
	user "anoa.com/socialforum/internal/modules/user/service"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/response"
	"anoa.com/socialforum/pkg/validator"
	"github.com/gin-gonic/gin"
)

const RefreshCookieName = "refreshToken"

type AuthHandler struct {
	authService  user.AuthService
	secureCookie bool
}

// NewAuthHandler marks the refresh cookie Secure when secureCookie is set,
// which production deployments should always do.
func NewAuthHandler(authService user.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	response.Success(c, http.StatusCreated, gin.H{
		"message":      "User registered successfully",
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_in":   res.ExpiresIn,
		"user":         res.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	response.Success(c, http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_in":   res.ExpiresIn,
		"user":         res.User,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(RefreshCookieName)
	if err != nil || raw == "" {
		response.ResponseError(c, apperror.New(http.StatusUnauthorized, "no refresh token", apperror.ErrUnauthorized))
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, token.ErrRefreshExpired) || errors.Is(err, token.ErrRefreshNotFound) {
			h.clearRefreshCookie(c)
		}
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_in":   res.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(RefreshCookieName); err == nil && raw != "" {
		if err := h.authService.Logout(c.Request.Context(), raw); err != nil {
			response.ResponseError(c, err)
			return
		}
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	u, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", h.secureCookie, true)
}
