package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/socialforum/internal/entity"
	postDto "anoa.com/socialforum/internal/modules/post/dto"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/dto"
)

const (
	titleMin   = 5
	titleMax   = 200
	contentMin = 10
	contentMax = 5000
)

func (s *postService) toPostResponse(post *entity.Post) postDto.PostResponse {
	images := post.Images
	if images == nil {
		images = []string{}
	}

	resp := postDto.PostResponse{
		ID:             post.ID,
		Title:          post.Title,
		Content:        post.Content,
		ContentHTML:    s.renderer.HTML(post.Content),
		Category:       post.Category,
		Images:         images,
		Status:         post.Status,
		ModerationNote: post.ModerationNote,
		ModeratedBy:    post.ModeratedBy,
		ModeratedAt:    post.ModeratedAt,
		LikesCount:     post.LikesCount,
		CommentsCount:  post.CommentsCount,
		ViewsCount:     post.ViewsCount,
		IsActive:       post.IsActive,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}

	if post.Author != nil {
		resp.Author = &dto.AuthorResponse{
			ID:       post.Author.ID,
			Username: post.Author.Username,
			Role:     string(post.Author.Role),
		}
	}

	return resp
}

func (s *postService) toPostList(posts []*entity.Post, page, limit int, total int64) *postDto.PostListResponse {
	items := make([]postDto.PostResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, s.toPostResponse(p))
	}

	return &postDto.PostListResponse{
		Posts:      items,
		Pagination: dto.NewPaginationMeta(page, limit, total),
	}
}

func (s *postService) cleanTitle(title string) (string, error) {
	title = s.renderer.Sanitize(title)
	if n := utf8.RuneCountInString(title); n < titleMin || n > titleMax {
		return "", apperror.Validation(fmt.Sprintf("title must be between %d and %d characters", titleMin, titleMax))
	}
	return title, nil
}

func (s *postService) cleanContent(content string) (string, error) {
	content = s.renderer.Sanitize(content)
	if n := utf8.RuneCountInString(content); n < contentMin || n > contentMax {
		return "", apperror.Validation(fmt.Sprintf("content must be between %d and %d characters", contentMin, contentMax))
	}
	return content, nil
}

func cleanCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return entity.DefaultCategory
	}
	return category
}

// removedImages returns the entries of before that are missing from after.
func removedImages(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, u := range after {
		keep[u] = struct{}{}
	}

	var removed []string
	for _, u := range before {
		if _, ok := keep[u]; !ok {
			removed = append(removed, u)
		}
	}
	return removed
}

func uintPtr(v uint) *uint {
	return &v
}
