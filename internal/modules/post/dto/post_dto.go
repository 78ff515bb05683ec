package dto

import (
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/dto"
)

const MaxImages = 6

type CreatePostRequest struct {
	Title    string   `json:"title" form:"title" binding:"required,min=5,max=200"`
	Content  string   `json:"content" form:"content" binding:"required,min=10,max=5000"`
	Category string   `json:"category" form:"category" binding:"omitempty,max=50"`
	Images   []string `json:"images" form:"image_urls" binding:"omitempty,max=6,dive,url"`
}

type UpdatePostRequest struct {
	Title    *string   `json:"title" binding:"omitempty,min=5,max=200"`
	Content  *string   `json:"content" binding:"omitempty,min=10,max=5000"`
	Category *string   `json:"category" binding:"omitempty,max=50"`
	Images   *[]string `json:"images" binding:"omitempty,max=6,dive,url"`
}

type ModerationRequest struct {
	ModerationNote string `json:"moderation_note" binding:"max=1000"`
}

type PostFilter struct {
	dto.PaginationQuery
	Category string `form:"category"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=created_at likes_count comments_count views_count"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type MyPostsFilter struct {
	dto.PaginationQuery
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected all"`
}

type SearchQuery struct {
	dto.PaginationQuery
	Q string `form:"q" binding:"required,min=1,max=200"`
}

type PostResponse struct {
	ID             uint                `json:"id"`
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	ContentHTML    string              `json:"content_html"`
	Category       string              `json:"category"`
	Images         []string            `json:"images"`
	Author         *dto.AuthorResponse `json:"author,omitempty"`
	Status         entity.PostStatus   `json:"status"`
	ModerationNote string              `json:"moderation_note,omitempty"`
	ModeratedBy    *uint               `json:"moderated_by,omitempty"`
	ModeratedAt    *time.Time          `json:"moderated_at,omitempty"`
	LikesCount     int                 `json:"likes_count"`
	CommentsCount  int                 `json:"comments_count"`
	ViewsCount     int                 `json:"views_count"`
	IsActive       bool                `json:"is_active"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type PostListResponse struct {
	Posts      []PostResponse     `json:"posts"`
	Pagination dto.PaginationMeta `json:"pagination"`
}
