package dto

import (
	"time"

	"anoa.com/socialforum/pkg/dto"
)

type CreateCommentRequest struct {
	PostID          uint   `json:"post_id" binding:"required"`
	Content         string `json:"content" binding:"required,max=1000"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type CommentResponse struct {
	ID              uint                `json:"id"`
	PostID          uint                `json:"post_id"`
	Content         string              `json:"content"`
	ContentHTML     string              `json:"content_html"`
	Author          *dto.AuthorResponse `json:"author,omitempty"`
	ParentCommentID *uint               `json:"parent_comment_id,omitempty"`
	LikesCount      int                 `json:"likes_count"`
	Replies         []CommentResponse   `json:"replies,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type CommentListResponse struct {
	Comments   []CommentResponse  `json:"comments"`
	Pagination dto.PaginationMeta `json:"pagination"`
}
