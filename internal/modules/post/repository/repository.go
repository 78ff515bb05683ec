package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/socialforum/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[string]string{
	"created_at":     "created_at",
	"likes_count":    "likes_count",
	"comments_count": "comments_count",
	"views_count":    "views_count",
}

type FeedQuery struct {
	Category string
	SortBy   string
	Desc     bool
	Offset   int
	Limit    int
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uint) (*entity.Post, error)
	FindPublicByIDs(ctx context.Context, ids []uint) ([]*entity.Post, error)
	UpdatePending(ctx context.Context, post *entity.Post, columns ...string) (bool, error)
	Moderate(ctx context.Context, id uint, status entity.PostStatus, moderatorID uint, note string, at time.Time) (bool, error)
	SoftDelete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (bool, int, error)
	IncrementViews(ctx context.Context, id uint) error
	FindFeed(ctx context.Context, q FeedQuery) ([]*entity.Post, int64, error)
	FindByAuthor(ctx context.Context, authorID uint, statuses []entity.PostStatus, offset, limit int) ([]*entity.Post, int64, error)
	FindPending(ctx context.Context, offset, limit int) ([]*entity.Post, int64, error)
	FindRecent(ctx context.Context, limit int) ([]*entity.Post, error)
	SearchPublic(ctx context.Context, term string, offset, limit int) ([]*entity.Post, int64, error)
	CountActive(ctx context.Context, status entity.PostStatus) (int64, error)
	CountByStatus(ctx context.Context, status entity.PostStatus) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func preloadAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "role")
	})
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	var post entity.Post
	if err := preloadAuthor(r.db.WithContext(ctx)).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindPublicByIDs keeps the order of ids and drops anything no longer public.
func (r *postRepository) FindPublicByIDs(ctx context.Context, ids []uint) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return []*entity.Post{}, nil
	}

	var posts []*entity.Post
	err := preloadAuthor(r.db.WithContext(ctx)).
		Where("id IN ? AND status = ? AND is_active = ?", ids, entity.PostStatusApproved, true).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*entity.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ordered := make([]*entity.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// UpdatePending writes columns only while the post is still pending and
// active. It reports false when a moderation decision or delete got there first.
func (r *postRepository) UpdatePending(ctx context.Context, post *entity.Post, columns ...string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Post{ID: post.ID}).
		Where("status = ? AND is_active = ?", entity.PostStatusPending, true).
		Select(columns).
		Omit(clause.Associations).
		Updates(post)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Moderate records a decision only while the post is still pending, so two
// moderators racing on the same post cannot both succeed.
func (r *postRepository) Moderate(ctx context.Context, id uint, status entity.PostStatus, moderatorID uint, note string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":          status,
		"moderated_by":    moderatorID,
		"moderated_at":    at,
		"moderation_note": note,
	}
	if status == entity.PostStatusRejected {
		updates["is_active"] = false
	}

	result := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ? AND status = ?", id, entity.PostStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).Where("id = ?", id).Update("is_active", false).Error
}

// ToggleLike flips userID's membership in the post's liker set and moves
// likes_count with it in one transaction. It reports the new membership and count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, int, error) {
	var liked bool
	var count int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&entity.PostLike{})
		if removed.Error != nil {
			return removed.Error
		}

		expr := gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")
		bump := true
		if removed.RowsAffected == 0 {
			// A concurrent toggle may have inserted the same like; it owns the increment.
			created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entity.PostLike{PostID: postID, UserID: userID})
			if created.Error != nil {
				return created.Error
			}
			liked = true
			bump = created.RowsAffected == 1
			expr = gorm.Expr("likes_count + ?", 1)
		}

		if bump {
			if err := tx.Model(&entity.Post{}).Where("id = ?", postID).UpdateColumn("likes_count", expr).Error; err != nil {
				return err
			}
		}

		return tx.Model(&entity.Post{}).Where("id = ?", postID).Select("likes_count").Scan(&count).Error
	})

	return liked, count, err
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
}

func (r *postRepository) FindFeed(ctx context.Context, q FeedQuery) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	query := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("status = ? AND is_active = ?", entity.PostStatusApproved, true)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := preloadAuthor(query).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id " + direction).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&posts).Error
	return posts, total, err
}

// FindByAuthor lists the author's active posts. An empty statuses slice
// means any status.
func (r *postRepository) FindByAuthor(ctx context.Context, authorID uint, statuses []entity.PostStatus, offset, limit int) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("author_id = ? AND is_active = ?", authorID, true)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := preloadAuthor(query).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) FindPending(ctx context.Context, offset, limit int) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("status = ? AND is_active = ?", entity.PostStatusPending, true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := preloadAuthor(query).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) FindRecent(ctx context.Context, limit int) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := preloadAuthor(r.db.WithContext(ctx)).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// SearchPublic is a plain substring match over public posts, used when no
// search engine is configured.
func (r *postRepository) SearchPublic(ctx context.Context, term string, offset, limit int) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	pattern := "%" + strings.ToLower(escapeLike(term)) + "%"
	query := r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("status = ? AND is_active = ?", entity.PostStatusApproved, true).
		Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')", pattern, pattern)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := preloadAuthor(query).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// CountActive counts active posts; an empty status counts every status.
func (r *postRepository) CountActive(ctx context.Context, status entity.PostStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Post{}).Where("is_active = ?", true)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *postRepository) CountByStatus(ctx context.Context, status entity.PostStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Post{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
