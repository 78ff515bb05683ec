package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"anoa.com/socialforum/internal/modules/admin/dto"
	adminService "anoa.com/socialforum/internal/modules/admin/service"
	postDto "anoa.com/socialforum/internal/modules/post/dto"
	postService "anoa.com/socialforum/internal/modules/post/service"
	commonDto "anoa.com/socialforum/pkg/dto"
	"anoa.com/socialforum/pkg/response"
	"anoa.com/socialforum/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService adminService.AdminService
	postService  postService.PostService
}

func NewAdminHandler(adminService adminService.AdminService, postService postService.PostService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		postService:  postService,
	}
}

func (h *AdminHandler) GetPendingPosts(c *gin.Context) {
	var query commonDto.PaginationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.postService.GetPendingPosts(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      result.Posts,
		"pagination": result.Pagination,
	})
}

func (h *AdminHandler) ApprovePost(c *gin.Context) {
	h.moderate(c, true)
}

func (h *AdminHandler) RejectPost(c *gin.Context) {
	h.moderate(c, false)
}

func (h *AdminHandler) moderate(c *gin.Context, approve bool) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := response.ParseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// The body is optional for approvals.
	var input postDto.ModerationRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, validator.FormatValidationError(err))
			return
		}
	}

	var post *postDto.PostResponse
	message := "Post approved successfully"
	if approve {
		post, err = h.postService.Approve(c.Request.Context(), adminID, postID, input.ModerationNote)
	} else {
		post, err = h.postService.Reject(c.Request.Context(), adminID, postID, input.ModerationNote)
		message = "Post rejected"
	}
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": message,
		"post":    post,
	})
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	var filter dto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users":      result.Users,
		"pagination": result.Pagination,
	})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParseIDParam(c, "userId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	user, err := h.adminService.UpdateRole(c.Request.Context(), adminID, userID, input.Role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("User role updated to %s", user.Role),
		"user":    user,
	})
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParseIDParam(c, "userId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	user, err := h.adminService.UpdateStatus(c.Request.Context(), adminID, userID, *input.IsActive)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	message := "User activated"
	if !user.IsActive {
		message = "User deactivated"
	}
	response.Success(c, http.StatusOK, gin.H{
		"message": message,
		"user":    user,
	})
}

func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.adminService.GetStatistics(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}
