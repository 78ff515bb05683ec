package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	postDto "anoa.com/socialforum/internal/modules/post/dto"
	post "anoa.com/socialforum/internal/modules/post/service"
	"anoa.com/socialforum/pkg/dto"
	"anoa.com/socialforum/pkg/response"
	"anoa.com/socialforum/pkg/storage"
	"anoa.com/socialforum/pkg/validator"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 5 << 20

type PostHandler struct {
	service post.PostService
}

func NewPostHandler(service post.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.CreatePostRequest
	var files []dto.ImageFile

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, validator.FormatValidationError(err))
			return
		}

		opened, closeAll, err := openImages(c)
		defer closeAll()
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		files = opened
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), userID, req, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Post submitted for moderation",
		"post":    resp,
	})
}

func openImages(c *gin.Context) ([]dto.ImageFile, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, closeAll, fmt.Errorf("invalid multipart form")
	}

	headers := form.File["images"]
	if len(headers) > postDto.MaxImages {
		return nil, closeAll, fmt.Errorf("a post can have at most %d images", postDto.MaxImages)
	}

	files := make([]dto.ImageFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadSize {
			return nil, closeAll, fmt.Errorf("image %s exceeds 5MB", fh.Filename)
		}
		if !storage.IsImageExtension(filepath.Ext(fh.Filename)) {
			return nil, closeAll, fmt.Errorf("image %s has an unsupported type", fh.Filename)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("could not read %s", fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, dto.ImageFile{Reader: f, FileName: fh.Filename})
	}

	return files, closeAll, nil
}

func (h *PostHandler) GetFeed(c *gin.Context) {
	var filter postDto.PostFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.service.GetFeed(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      result.Posts,
		"pagination": result.Pagination,
	})
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	var query postDto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      result.Posts,
		"pagination": result.Pagination,
	})
}

func (h *PostHandler) GetMyPosts(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter postDto.MyPostsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.service.GetMyPosts(c.Request.Context(), userID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      result.Posts,
		"pagination": result.Pagination,
	})
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID, err := response.ParseIDParam(c, "userId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.PaginationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	result, err := h.service.GetUserPosts(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"posts":      result.Posts,
		"pagination": result.Pagination,
	})
}

func (h *PostHandler) GetPostByID(c *gin.Context) {
	postID, err := response.ParseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	viewer := response.GetUser(c)
	viewerKey := "ip:" + c.ClientIP()
	if viewer != nil {
		viewerKey = fmt.Sprintf("user:%d", viewer.ID)
	}

	resp, err := h.service.GetPost(c.Request.Context(), postID, viewer, viewerKey)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"post": resp})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := response.ParseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req postDto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validator.FormatValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Post updated",
		"post":    resp,
	})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := response.ParseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, postID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := response.ParseIDParam(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"action":      result.Action,
		"likes_count": result.LikesCount,
	})
}
