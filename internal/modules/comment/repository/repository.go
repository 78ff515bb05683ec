package repository

import (
	"context"

	"anoa.com/socialforum/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uint) (*entity.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	SoftDelete(ctx context.Context, comment *entity.Comment) (bool, error)
	FindTopLevel(ctx context.Context, postID uint, offset, limit int) ([]*entity.Comment, int64, error)
	ToggleLike(ctx context.Context, commentID, userID uint) (bool, int, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "role")
}

// Create inserts the comment and bumps the post's comments_count together.
func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*entity.Comment, error) {
	var comment entity.Comment
	err := r.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	return r.db.WithContext(ctx).Model(&entity.Comment{ID: id}).Update("content", content).Error
}

// SoftDelete deactivates the comment and decrements the post's
// comments_count, floored at zero. It reports false when the comment was
// already inactive.
func (r *commentRepository) SoftDelete(ctx context.Context, comment *entity.Comment) (bool, error) {
	var deleted bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Comment{}).
			Where("id = ? AND is_active = ?", comment.ID, true).
			UpdateColumn("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true

		return tx.Model(&entity.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("CASE WHEN comments_count > 0 THEN comments_count - 1 ELSE 0 END")).Error
	})

	return deleted, err
}

// FindTopLevel pages the active top-level comments of a post, newest first,
// each with its active replies oldest first.
func (r *commentRepository) FindTopLevel(ctx context.Context, postID uint, offset, limit int) ([]*entity.Comment, int64, error) {
	var comments []*entity.Comment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("post_id = ? AND is_active = ? AND parent_comment_id IS NULL", postID, true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Author", selectAuthor).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at ASC, id ASC")
		}).
		Preload("Replies.Author", selectAuthor).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID uint) (bool, int, error) {
	var liked bool
	var count int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&entity.CommentLike{})
		if removed.Error != nil {
			return removed.Error
		}

		expr := gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")
		bump := true
		if removed.RowsAffected == 0 {
			// A concurrent toggle may have inserted the same like; it owns the increment.
			created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entity.CommentLike{CommentID: commentID, UserID: userID})
			if created.Error != nil {
				return created.Error
			}
			liked = true
			bump = created.RowsAffected == 1
			expr = gorm.Expr("likes_count + ?", 1)
		}

		if bump {
			if err := tx.Model(&entity.Comment{}).Where("id = ?", commentID).UpdateColumn("likes_count", expr).Error; err != nil {
				return err
			}
		}

		return tx.Model(&entity.Comment{}).Where("id = ?", commentID).Select("likes_count").Scan(&count).Error
	})

	return liked, count, err
}
