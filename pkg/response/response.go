package response

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// Context keys shared with the auth and request-id middleware.
const (
	UserIDKey    = "user_id"
	UserKey      = "user"
	RequestIDKey = "request_id"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, apperror.ErrUnauthorized
	}

	userID, ok := v.(uint)
	if !ok || userID == 0 {
		return 0, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetUser returns the resolved identity, or nil for anonymous callers.
func GetUser(c *gin.Context) *entity.User {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}

// Success writes the standard envelope with success=true merged into payload.
func Success(c *gin.Context, code int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", rateLimitErr.RetryAfterHeader())
	}

	body := gin.H{
		"success": false,
		"error":   apperror.SafeMessage(err),
	}

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error] request=%s %s %s: %v", c.GetString(RequestIDKey), c.Request.Method, c.FullPath(), err)
		if gin.Mode() != gin.ReleaseMode {
			body["debug"] = debugMessage(err)
		}
	}

	c.AbortWithStatusJSON(code, body)
}

func debugMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}

// BadRequest is a shortcut for binding and parameter failures.
func BadRequest(c *gin.Context, message string) {
	ResponseError(c, apperror.Validation(message))
}

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}
