package dto

import "io"

type PaginationQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Normalize fills defaults and returns the row offset.
func (q *PaginationQuery) Normalize(defaultLimit int) int {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
	HasMore     bool  `json:"has_more"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int(total) / limit
		if int(total)%limit != 0 {
			totalPages++
		}
	}

	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
		HasMore:     int64(page*limit) < total,
	}
}

type AuthorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

type LikeResponse struct {
	Action     string `json:"action"`
	LikesCount int    `json:"likes_count"`
}

// ImageFile is an uploaded image waiting to be stored.
type ImageFile struct {
	Reader   io.Reader
	FileName string
}
