package dto

import (
	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/dto"
)

type NotificationFilter struct {
	dto.PaginationQuery
	UnreadOnly bool `form:"unread_only"`
}

type NotificationListResponse struct {
	Notifications []*entity.Notification `json:"notifications"`
	Pagination    dto.PaginationMeta     `json:"pagination"`
	UnreadCount   int64                  `json:"unread_count"`
}
