package dto

import (
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/dto"
)

type UserFilter struct {
	dto.PaginationQuery
	Role string `form:"role" binding:"omitempty,oneof=admin moderator registered"`
}

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required"`
}

type UpdateStatusInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type UserListResponse struct {
	Users      []*entity.User     `json:"users"`
	Pagination dto.PaginationMeta `json:"pagination"`
}

type UserStatistics struct {
	Total      int64 `json:"total"`
	Admin      int64 `json:"admin"`
	Registered int64 `json:"registered"`
}

type PostStatistics struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type RecentPost struct {
	ID        uint                `json:"id"`
	Title     string              `json:"title"`
	Status    entity.PostStatus   `json:"status"`
	Author    *dto.AuthorResponse `json:"author,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type StatisticsResponse struct {
	Users       UserStatistics `json:"users"`
	Posts       PostStatistics `json:"posts"`
	RecentPosts []RecentPost   `json:"recent_posts"`
}
