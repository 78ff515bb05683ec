package entity

import "time"

type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

const DefaultCategory = "general"

// CanTransitionTo reports whether a moderation decision may move the post
// from its current status to next. Approved and rejected are terminal.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	return s == PostStatusPending && (next == PostStatusApproved || next == PostStatusRejected)
}

type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Category       string     `gorm:"size:50;not null;default:general;index" json:"category"`
	Images         []string   `gorm:"serializer:json" json:"images"`
	AuthorID       uint       `gorm:"not null;index" json:"author_id"`
	Author         *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Status         PostStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ModerationNote string     `gorm:"type:text" json:"moderation_note,omitempty"`
	ModeratedBy    *uint      `json:"moderated_by,omitempty"`
	Moderator      *User      `gorm:"foreignKey:ModeratedBy;constraint:OnDelete:SET NULL" json:"-"`
	ModeratedAt    *time.Time `json:"moderated_at,omitempty"`
	LikesCount     int        `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount  int        `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount     int        `gorm:"not null;default:0" json:"views_count"`
	IsActive       bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// VisibleTo decides whether viewer may read the post. A nil viewer is an
// anonymous request.
func (p *Post) VisibleTo(viewer *User) bool {
	if p.Status == PostStatusApproved {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.ID == p.AuthorID || viewer.Role.CanModerate()
}

// IsPublic reports whether the post belongs in the feed.
func (p *Post) IsPublic() bool {
	return p.Status == PostStatusApproved && p.IsActive
}

type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Post      *Post     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
