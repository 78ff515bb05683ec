package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"anoa.com/socialforum/internal/entity"
	commentDto "anoa.com/socialforum/internal/modules/comment/dto"
	"anoa.com/socialforum/internal/modules/comment/repository"
	notif "anoa.com/socialforum/internal/modules/notification/service"
	postRepo "anoa.com/socialforum/internal/modules/post/repository"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/content"
	"anoa.com/socialforum/pkg/dto"
	"anoa.com/socialforum/pkg/ratelimiter"
	"gorm.io/gorm"
)

const maxCommentLength = 1000

var (
	errCommentNotFound = apperror.NotFound("comment not found")
	errPostNotPublic   = apperror.NotFound("post not found or not approved")
	errPostNotFound    = apperror.NotFound("post not found")
	errPostUnavailable = apperror.Forbidden("this post is not available")
)

type CommentService interface {
	AddComment(ctx context.Context, authorID uint, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	ListForPost(ctx context.Context, postID uint, viewer *entity.User, query dto.PaginationQuery) (*commentDto.CommentListResponse, error)
	UpdateComment(ctx context.Context, authorID, commentID uint, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error)
	DeleteComment(ctx context.Context, authorID, commentID uint) error
	ToggleLike(ctx context.Context, commentID, userID uint) (*dto.LikeResponse, error)
}

type commentService struct {
	commentRepo         repository.CommentRepository
	postRepo            postRepo.PostRepository
	notificationService notif.NotificationService
	renderer            *content.Renderer
	cooldown            *ratelimiter.Cooldown
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo postRepo.PostRepository, notificationService notif.NotificationService, renderer *content.Renderer, cooldown *ratelimiter.Cooldown) CommentService {
	return &commentService{
		commentRepo:         commentRepo,
		postRepo:            postRepo,
		notificationService: notificationService,
		renderer:            renderer,
		cooldown:            cooldown,
	}
}

func (s *commentService) AddComment(ctx context.Context, authorID uint, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	body, err := s.cleanContent(req.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotPublic
		}
		return nil, apperror.Internal(err)
	}
	if !post.IsPublic() {
		return nil, errPostNotPublic
	}

	var repliedTo *entity.Comment
	var parentID *uint
	if req.ParentCommentID != nil {
		repliedTo, err = s.commentRepo.FindByID(ctx, *req.ParentCommentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal(err)
		}
		if repliedTo == nil || !repliedTo.IsActive || repliedTo.PostID != post.ID {
			return nil, apperror.Validation("parent comment not found on this post")
		}

		// Replies stay one level deep: answering a reply attaches to its parent.
		root := repliedTo.ID
		if repliedTo.IsReply() {
			root = *repliedTo.ParentCommentID
		}
		parentID = &root
	}

	if err := s.cooldown.Acquire(ctx, authorID); err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		Content:         body,
		PostID:          post.ID,
		AuthorID:        authorID,
		ParentCommentID: parentID,
		IsActive:        true,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.cooldown.Release(ctx, authorID)
		return nil, apperror.Internal(err)
	}

	saved, err := s.commentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.notifyComment(ctx, post, repliedTo, saved)

	resp := s.toCommentResponse(saved)
	return &resp, nil
}

func (s *commentService) notifyComment(ctx context.Context, post *entity.Post, repliedTo, comment *entity.Comment) {
	toPostAuthor := post.AuthorID != comment.AuthorID
	toParentAuthor := repliedTo != nil && repliedTo.AuthorID != comment.AuthorID
	if !toPostAuthor && !toParentAuthor {
		return
	}

	username := ""
	if comment.Author != nil {
		username = comment.Author.Username
	}

	if toPostAuthor {
		s.notificationService.Notify(ctx, &entity.Notification{
			RecipientID:      post.AuthorID,
			Type:             entity.NotificationComment,
			Title:            "New Comment",
			Message:          fmt.Sprintf("%s commented on your post", username),
			RelatedPostID:    uintPtr(post.ID),
			RelatedCommentID: uintPtr(comment.ID),
			ActorID:          uintPtr(comment.AuthorID),
		})
	}

	if toParentAuthor {
		s.notificationService.Notify(ctx, &entity.Notification{
			RecipientID:      repliedTo.AuthorID,
			Type:             entity.NotificationReply,
			Title:            "New Reply",
			Message:          fmt.Sprintf("%s replied to your comment", username),
			RelatedPostID:    uintPtr(post.ID),
			RelatedCommentID: uintPtr(comment.ID),
			ActorID:          uintPtr(comment.AuthorID),
		})
	}
}

func (s *commentService) ListForPost(ctx context.Context, postID uint, viewer *entity.User, query dto.PaginationQuery) (*commentDto.CommentListResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, apperror.Internal(err)
	}
	if !post.IsActive && post.Status != entity.PostStatusRejected {
		return nil, errPostNotFound
	}
	if !post.VisibleTo(viewer) {
		return nil, errPostUnavailable
	}

	offset := query.Normalize(20)
	comments, total, err := s.commentRepo.FindTopLevel(ctx, postID, offset, query.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	items := make([]commentDto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		items = append(items, s.toCommentResponse(c))
	}

	return &commentDto.CommentListResponse{
		Comments:   items,
		Pagination: dto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *commentService) UpdateComment(ctx context.Context, authorID, commentID uint, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error) {
	comment, err := s.findActive(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, apperror.Forbidden("you can only edit your own comments")
	}

	body, err := s.cleanContent(req.Content)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepo.UpdateContent(ctx, commentID, body); err != nil {
		return nil, apperror.Internal(err)
	}

	updated, err := s.findActive(ctx, commentID)
	if err != nil {
		return nil, err
	}
	resp := s.toCommentResponse(updated)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, authorID, commentID uint) error {
	comment, err := s.findActive(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != authorID {
		return apperror.Forbidden("you can only delete your own comments")
	}

	deleted, err := s.commentRepo.SoftDelete(ctx, comment)
	if err != nil {
		return apperror.Internal(err)
	}
	if !deleted {
		return errCommentNotFound
	}
	return nil
}

func (s *commentService) ToggleLike(ctx context.Context, commentID, userID uint) (*dto.LikeResponse, error) {
	comment, err := s.findActive(ctx, commentID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, comment.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCommentNotFound
		}
		return nil, apperror.Internal(err)
	}
	if !post.IsPublic() {
		return nil, errCommentNotFound
	}

	liked, count, err := s.commentRepo.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	action := "unliked"
	if liked {
		action = "liked"
	}
	return &dto.LikeResponse{Action: action, LikesCount: count}, nil
}

func (s *commentService) findActive(ctx context.Context, commentID uint) (*entity.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCommentNotFound
		}
		return nil, apperror.Internal(err)
	}
	if !comment.IsActive {
		return nil, errCommentNotFound
	}
	return comment, nil
}

func (s *commentService) cleanContent(raw string) (string, error) {
	body := s.renderer.Sanitize(raw)
	if n := utf8.RuneCountInString(body); n < 1 || n > maxCommentLength {
		return "", apperror.Validation(fmt.Sprintf("comment must be between 1 and %d characters", maxCommentLength))
	}
	return body, nil
}

func (s *commentService) toCommentResponse(c *entity.Comment) commentDto.CommentResponse {
	resp := commentDto.CommentResponse{
		ID:              c.ID,
		PostID:          c.PostID,
		Content:         c.Content,
		ContentHTML:     s.renderer.HTML(c.Content),
		ParentCommentID: c.ParentCommentID,
		LikesCount:      c.LikesCount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}

	if c.Author != nil {
		resp.Author = &dto.AuthorResponse{
			ID:       c.Author.ID,
			Username: c.Author.Username,
			Role:     string(c.Author.Role),
		}
	}

	for _, r := range c.Replies {
		resp.Replies = append(resp.Replies, s.toCommentResponse(r))
	}

	return resp
}

func uintPtr(v uint) *uint {
	return &v
}
