package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/modules/admin/dto"
	postRepo "anoa.com/socialforum/internal/modules/post/repository"
	token "anoa.com/socialforum/internal/modules/token/service"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	"anoa.com/socialforum/pkg/apperror"
	pkgdto "anoa.com/socialforum/pkg/dto"
	"gorm.io/gorm"
)

const recentPostsLimit = 5

var errUserNotFound = apperror.NotFound("user not found")

type AdminService interface {
	GetUsers(ctx context.Context, filter dto.UserFilter) (*dto.UserListResponse, error)
	UpdateRole(ctx context.Context, adminID, userID uint, role string) (*entity.User, error)
	UpdateStatus(ctx context.Context, adminID, userID uint, active bool) (*entity.User, error)
	GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error)
}

type adminService struct {
	userRepo userRepo.UserRepository
	postRepo postRepo.PostRepository
	tokens   token.TokenService
}

func NewAdminService(userRepo userRepo.UserRepository, postRepo postRepo.PostRepository, tokens token.TokenService) AdminService {
	return &adminService{
		userRepo: userRepo,
		postRepo: postRepo,
		tokens:   tokens,
	}
}

func (s *adminService) GetUsers(ctx context.Context, filter dto.UserFilter) (*dto.UserListResponse, error) {
	offset := filter.Normalize(20)

	users, total, err := s.userRepo.FindActive(ctx, entity.Role(filter.Role), offset, filter.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	for _, u := range users {
		u.PasswordHash = ""
	}
	if users == nil {
		users = []*entity.User{}
	}

	return &dto.UserListResponse{
		Users:      users,
		Pagination: pkgdto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *adminService) UpdateRole(ctx context.Context, adminID, userID uint, role string) (*entity.User, error) {
	next := entity.Role(role)
	if !next.IsAssignable() {
		return nil, apperror.Validation("invalid role. Must be admin or registered")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.ID == adminID && next != entity.RoleAdmin {
		return nil, apperror.Validation("cannot change your own admin role")
	}

	if user.Role != next {
		if err := s.userRepo.UpdateRole(ctx, userID, next); err != nil {
			return nil, apperror.Internal(err)
		}
		user.Role = next
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) UpdateStatus(ctx context.Context, adminID, userID uint, active bool) (*entity.User, error) {
	if userID == adminID && !active {
		return nil, apperror.Validation("cannot deactivate your own account")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsActive != active {
		if err := s.userRepo.UpdateStatus(ctx, userID, active); err != nil {
			return nil, apperror.Internal(err)
		}
		user.IsActive = active
	}

	// A deactivated user keeps no way back in through old refresh tokens.
	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error) {
	var stats dto.StatisticsResponse
	var err error

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&stats.Users.Total, func() (int64, error) { return s.userRepo.CountActive(ctx, "") }},
		{&stats.Users.Admin, func() (int64, error) { return s.userRepo.CountActive(ctx, entity.RoleAdmin) }},
		{&stats.Users.Registered, func() (int64, error) { return s.userRepo.CountActive(ctx, entity.RoleRegistered) }},
		{&stats.Posts.Total, func() (int64, error) { return s.postRepo.CountActive(ctx, "") }},
		{&stats.Posts.Pending, func() (int64, error) { return s.postRepo.CountActive(ctx, entity.PostStatusPending) }},
		{&stats.Posts.Approved, func() (int64, error) { return s.postRepo.CountActive(ctx, entity.PostStatusApproved) }},
		{&stats.Posts.Rejected, func() (int64, error) { return s.postRepo.CountByStatus(ctx, entity.PostStatusRejected) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return nil, apperror.Internal(fmt.Errorf("statistics: %w", err))
		}
	}

	recent, err := s.postRepo.FindRecent(ctx, recentPostsLimit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	stats.RecentPosts = make([]dto.RecentPost, 0, len(recent))
	for _, p := range recent {
		item := dto.RecentPost{
			ID:        p.ID,
			Title:     p.Title,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		}
		if p.Author != nil {
			item.Author = &pkgdto.AuthorResponse{
				ID:       p.Author.ID,
				Username: p.Author.Username,
				Role:     string(p.Author.Role),
			}
		}
		stats.RecentPosts = append(stats.RecentPosts, item)
	}

	return &stats, nil
}

func (s *adminService) find(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}
