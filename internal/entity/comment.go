package entity

import "time"

type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	PostID          uint       `gorm:"not null;index" json:"post_id"`
	Post            *Post      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID        uint       `gorm:"not null;index" json:"author_id"`
	Author          *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	ParentCommentID *uint      `gorm:"index" json:"parent_comment_id,omitempty"`
	Parent          *Comment   `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"-"`
	Replies         []*Comment `gorm:"foreignKey:ParentCommentID" json:"replies,omitempty"`
	LikesCount      int        `gorm:"not null;default:0" json:"likes_count"`
	IsActive        bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Comment   *Comment  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
