package view

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewWindow = time.Hour

type ViewService interface {
	// ShouldCount reports whether viewer's visit to postID should bump the
	// counter. Each viewer counts once per hour; without Redis every visit counts.
	ShouldCount(ctx context.Context, postID uint, viewer string) (bool, error)
}

type viewService struct {
	redisClient *redis.Client
}

func NewViewService(redisClient *redis.Client) ViewService {
	return &viewService{redisClient: redisClient}
}

func (s *viewService) ShouldCount(ctx context.Context, postID uint, viewer string) (bool, error) {
	if s.redisClient == nil || viewer == "" {
		return true, nil
	}

	key := fmt.Sprintf("post:user_view:%d:%s", postID, viewer)
	first, err := s.redisClient.SetNX(ctx, key, "viewed", viewWindow).Result()
	if err != nil {
		return true, fmt.Errorf("failed to record view: %w", err)
	}
	return first, nil
}
