package service

import (
	"context"
	"errors"
	"log"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/modules/notification/dto"
	notifRepo "anoa.com/socialforum/internal/modules/notification/repository"
	"anoa.com/socialforum/pkg/apperror"
	pkgdto "anoa.com/socialforum/pkg/dto"
	"gorm.io/gorm"
)

type NotificationService interface {
	// Notify stores n as unread. Failures are logged, never returned, so
	// callers can fire it after their own write has committed.
	Notify(ctx context.Context, n *entity.Notification)
	List(ctx context.Context, userID uint, filter dto.NotificationFilter) (*dto.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, userID, id uint) (*entity.Notification, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo notifRepo.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo notifRepo.NotificationRepository) NotificationService {
	return &notificationService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, n *entity.Notification) {
	if n == nil || n.RecipientID == 0 {
		return
	}

	n.IsRead = false
	n.ReadAt = nil
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("Failed to create %s notification for user %d: %v", n.Type, n.RecipientID, err)
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, filter dto.NotificationFilter) (*dto.NotificationListResponse, error) {
	offset := filter.Normalize(20)

	notifications, total, err := s.repo.GetByRecipient(ctx, userID, filter.UnreadOnly, offset, filter.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if notifications == nil {
		notifications = []*entity.Notification{}
	}

	return &dto.NotificationListResponse{
		Notifications: notifications,
		Pagination:    pkgdto.NewPaginationMeta(filter.Page, filter.Limit, total),
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uint) (*entity.Notification, error) {
	notification, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if notification.IsRead {
		return notification, nil
	}

	now := s.now()
	if err := s.repo.MarkAsRead(ctx, id, now); err != nil {
		return nil, apperror.Internal(err)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	return notification, nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID, s.now())
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return count, nil
}

func (s *notificationService) findOwned(ctx context.Context, userID, id uint) (*entity.Notification, error) {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("notification not found")
		}
		return nil, apperror.Internal(err)
	}

	if notification.RecipientID != userID {
		return nil, apperror.Forbidden("you can only manage your own notifications")
	}
	return notification, nil
}
