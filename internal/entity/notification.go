package entity

import "time"

type NotificationType string

const (
	NotificationPostApproved NotificationType = "post_approved"
	NotificationPostRejected NotificationType = "post_rejected"
	NotificationComment      NotificationType = "comment"
	NotificationReply        NotificationType = "reply"
	NotificationLike         NotificationType = "like"
)

type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	RecipientID      uint             `gorm:"not null;index" json:"recipient_id"`
	Recipient        *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	Type             NotificationType `gorm:"size:30;not null" json:"type"`
	Title            string           `gorm:"size:200;not null" json:"title"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	RelatedPostID    *uint            `json:"related_post_id,omitempty"`
	RelatedCommentID *uint            `json:"related_comment_id,omitempty"`
	ActorID          *uint            `json:"actor_id,omitempty"`
	Actor            *User            `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL" json:"actor,omitempty"`
	IsRead           bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt           *time.Time       `json:"read_at,omitempty"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
}
