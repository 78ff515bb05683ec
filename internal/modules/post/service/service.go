package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/socialforum/internal/entity"
	notif "anoa.com/socialforum/internal/modules/notification/service"
	postDto "anoa.com/socialforum/internal/modules/post/dto"
	"anoa.com/socialforum/internal/modules/post/repository"
	search "anoa.com/socialforum/internal/modules/search/service"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	view "anoa.com/socialforum/internal/modules/view/service"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/content"
	"anoa.com/socialforum/pkg/dto"
	"anoa.com/socialforum/pkg/ratelimiter"
	"anoa.com/socialforum/pkg/storage"
	"gorm.io/gorm"
)

const imageFolder = "posts"

var (
	errPostNotFound    = apperror.NotFound("post not found")
	errPostNotPublic   = apperror.NotFound("post not found or not approved")
	errPostUnavailable = apperror.Forbidden("this post is not available")
	errNoteRequired    = apperror.Validation("moderation note is required when rejecting a post")
	errNotEditable     = apperror.InvalidTransition("only pending posts can be edited")
)

type PostService interface {
	Submit(ctx context.Context, authorID uint, req postDto.CreatePostRequest, files []dto.ImageFile) (*postDto.PostResponse, error)
	Approve(ctx context.Context, moderatorID, postID uint, note string) (*postDto.PostResponse, error)
	Reject(ctx context.Context, moderatorID, postID uint, note string) (*postDto.PostResponse, error)
	Update(ctx context.Context, authorID, postID uint, req postDto.UpdatePostRequest) (*postDto.PostResponse, error)
	Delete(ctx context.Context, authorID, postID uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (*dto.LikeResponse, error)
	GetPost(ctx context.Context, postID uint, viewer *entity.User, viewerKey string) (*postDto.PostResponse, error)
	GetFeed(ctx context.Context, filter postDto.PostFilter) (*postDto.PostListResponse, error)
	GetMyPosts(ctx context.Context, userID uint, filter postDto.MyPostsFilter) (*postDto.PostListResponse, error)
	GetUserPosts(ctx context.Context, userID uint, query dto.PaginationQuery) (*postDto.PostListResponse, error)
	GetPendingPosts(ctx context.Context, query dto.PaginationQuery) (*postDto.PostListResponse, error)
	Search(ctx context.Context, query postDto.SearchQuery) (*postDto.PostListResponse, error)
}

type postService struct {
	postRepo            repository.PostRepository
	userRepo            userRepo.UserRepository
	notificationService notif.NotificationService
	meili               search.MeiliSearchService
	imageStorage        storage.ImageStorage
	viewService         view.ViewService
	renderer            *content.Renderer
	cooldown            *ratelimiter.Cooldown
	now                 func() time.Time
}

// NewPostService wires the moderation workflow. meili, imageStorage and
// cooldown may be nil; the matching feature is then disabled.
func NewPostService(postRepo repository.PostRepository, userRepo userRepo.UserRepository, notificationService notif.NotificationService, meili search.MeiliSearchService, imageStorage storage.ImageStorage, viewService view.ViewService, renderer *content.Renderer, cooldown *ratelimiter.Cooldown) PostService {
	return &postService{
		postRepo:            postRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		meili:               meili,
		imageStorage:        imageStorage,
		viewService:         viewService,
		renderer:            renderer,
		cooldown:            cooldown,
		now:                 time.Now,
	}
}

func (s *postService) Submit(ctx context.Context, authorID uint, req postDto.CreatePostRequest, files []dto.ImageFile) (*postDto.PostResponse, error) {
	if err := s.cooldown.Acquire(ctx, authorID); err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			s.cooldown.Release(ctx, authorID)
		}
	}()

	title, err := s.cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}
	body, err := s.cleanContent(req.Content)
	if err != nil {
		return nil, err
	}

	if len(req.Images)+len(files) > postDto.MaxImages {
		return nil, apperror.Validation(fmt.Sprintf("a post can have at most %d images", postDto.MaxImages))
	}

	images := append([]string{}, req.Images...)
	uploaded, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}
	images = append(images, uploaded...)

	post := &entity.Post{
		Title:    title,
		Content:  body,
		Category: cleanCategory(req.Category),
		Images:   images,
		AuthorID: authorID,
		Status:   entity.PostStatusPending,
		IsActive: true,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.deleteImages(ctx, uploaded)
		return nil, apperror.Internal(err)
	}
	created = true

	return s.reload(ctx, post.ID)
}

func (s *postService) Approve(ctx context.Context, moderatorID, postID uint, note string) (*postDto.PostResponse, error) {
	post, err := s.moderate(ctx, moderatorID, postID, entity.PostStatusApproved, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, &entity.Notification{
		RecipientID:   post.AuthorID,
		Type:          entity.NotificationPostApproved,
		Title:         "Post Approved",
		Message:       fmt.Sprintf("Your post \"%s\" has been approved and is now visible in the feed.", post.Title),
		RelatedPostID: uintPtr(post.ID),
		ActorID:       uintPtr(moderatorID),
	})

	if s.meili != nil {
		if err := s.meili.IndexPost(post); err != nil {
			log.Printf("Failed to index post %d: %v", post.ID, err)
		}
	}

	resp := s.toPostResponse(post)
	return &resp, nil
}

func (s *postService) Reject(ctx context.Context, moderatorID, postID uint, note string) (*postDto.PostResponse, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, errNoteRequired
	}

	post, err := s.moderate(ctx, moderatorID, postID, entity.PostStatusRejected, note)
	if err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, &entity.Notification{
		RecipientID:   post.AuthorID,
		Type:          entity.NotificationPostRejected,
		Title:         "Post Rejected",
		Message:       fmt.Sprintf("Your post \"%s\" has been rejected. Reason: %s", post.Title, note),
		RelatedPostID: uintPtr(post.ID),
		ActorID:       uintPtr(moderatorID),
	})

	resp := s.toPostResponse(post)
	return &resp, nil
}

func (s *postService) moderate(ctx context.Context, moderatorID, postID uint, next entity.PostStatus, note string) (*entity.Post, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !post.Status.CanTransitionTo(next) {
		return nil, apperror.InvalidTransition(fmt.Sprintf("cannot move a %s post to %s", post.Status, next))
	}

	ok, err := s.postRepo.Moderate(ctx, postID, next, moderatorID, note, s.now())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !ok {
		return nil, apperror.InvalidTransition("post has already been moderated")
	}

	return s.find(ctx, postID)
}

func (s *postService) Update(ctx context.Context, authorID, postID uint, req postDto.UpdatePostRequest) (*postDto.PostResponse, error) {
	post, err := s.findActive(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, apperror.Forbidden("you can only edit your own posts")
	}
	if post.Status != entity.PostStatusPending {
		return nil, errNotEditable
	}

	columns := []string{"updated_at"}
	var removed []string

	if req.Title != nil {
		if post.Title, err = s.cleanTitle(*req.Title); err != nil {
			return nil, err
		}
		columns = append(columns, "title")
	}
	if req.Content != nil {
		if post.Content, err = s.cleanContent(*req.Content); err != nil {
			return nil, err
		}
		columns = append(columns, "content")
	}
	if req.Category != nil {
		post.Category = cleanCategory(*req.Category)
		columns = append(columns, "category")
	}
	if req.Images != nil {
		if len(*req.Images) > postDto.MaxImages {
			return nil, apperror.Validation(fmt.Sprintf("a post can have at most %d images", postDto.MaxImages))
		}
		removed = removedImages(post.Images, *req.Images)
		post.Images = append([]string{}, *req.Images...)
		columns = append(columns, "images")
	}

	ok, err := s.postRepo.UpdatePending(ctx, post, columns...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !ok {
		return nil, errNotEditable
	}

	s.deleteImages(ctx, removed)

	return s.reload(ctx, post.ID)
}

func (s *postService) Delete(ctx context.Context, authorID, postID uint) error {
	post, err := s.findActive(ctx, postID)
	if err != nil {
		return err
	}

	if post.AuthorID != authorID {
		return apperror.Forbidden("you can only delete your own posts")
	}

	if err := s.postRepo.SoftDelete(ctx, postID); err != nil {
		return apperror.Internal(err)
	}

	if s.meili != nil && post.Status == entity.PostStatusApproved {
		if err := s.meili.DeletePost(postID); err != nil {
			log.Printf("Failed to remove post %d from search: %v", postID, err)
		}
	}

	return nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID uint) (*dto.LikeResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotPublic
		}
		return nil, apperror.Internal(err)
	}
	if !post.IsPublic() {
		return nil, errPostNotPublic
	}

	liked, count, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	action := "unliked"
	if liked {
		action = "liked"
		if post.AuthorID != userID {
			s.notifyLike(ctx, post, userID)
		}
	}

	return &dto.LikeResponse{Action: action, LikesCount: count}, nil
}

func (s *postService) notifyLike(ctx context.Context, post *entity.Post, likerID uint) {
	liker, err := s.userRepo.FindByID(ctx, likerID)
	if err != nil {
		log.Printf("Failed to load liker %d for notification: %v", likerID, err)
		return
	}

	s.notificationService.Notify(ctx, &entity.Notification{
		RecipientID:   post.AuthorID,
		Type:          entity.NotificationLike,
		Title:         "New Like",
		Message:       fmt.Sprintf("%s liked your post", liker.Username),
		RelatedPostID: uintPtr(post.ID),
		ActorID:       uintPtr(likerID),
	})
}

func (s *postService) GetPost(ctx context.Context, postID uint, viewer *entity.User, viewerKey string) (*postDto.PostResponse, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	// Rejected posts are inactive but remain readable by their author.
	if !post.IsActive && post.Status != entity.PostStatusRejected {
		return nil, errPostNotFound
	}
	if !post.VisibleTo(viewer) {
		return nil, errPostUnavailable
	}

	count, err := s.viewService.ShouldCount(ctx, postID, viewerKey)
	if err != nil {
		log.Printf("View dedup unavailable for post %d: %v", postID, err)
	}
	if count {
		if err := s.postRepo.IncrementViews(ctx, postID); err != nil {
			log.Printf("Failed to increment views for post %d: %v", postID, err)
		} else {
			post.ViewsCount++
		}
	}

	resp := s.toPostResponse(post)
	return &resp, nil
}

func (s *postService) GetFeed(ctx context.Context, filter postDto.PostFilter) (*postDto.PostListResponse, error) {
	offset := filter.Normalize(10)

	posts, total, err := s.postRepo.FindFeed(ctx, repository.FeedQuery{
		Category: strings.ToLower(strings.TrimSpace(filter.Category)),
		SortBy:   filter.SortBy,
		Desc:     filter.Order != "asc",
		Offset:   offset,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return s.toPostList(posts, filter.Page, filter.Limit, total), nil
}

func (s *postService) GetMyPosts(ctx context.Context, userID uint, filter postDto.MyPostsFilter) (*postDto.PostListResponse, error) {
	offset := filter.Normalize(10)

	var statuses []entity.PostStatus
	switch filter.Status {
	case "all":
	case "":
		statuses = []entity.PostStatus{entity.PostStatusPending}
	default:
		statuses = []entity.PostStatus{entity.PostStatus(filter.Status)}
	}

	posts, total, err := s.postRepo.FindByAuthor(ctx, userID, statuses, offset, filter.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return s.toPostList(posts, filter.Page, filter.Limit, total), nil
}

func (s *postService) GetUserPosts(ctx context.Context, userID uint, query dto.PaginationQuery) (*postDto.PostListResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}

	offset := query.Normalize(10)
	posts, total, err := s.postRepo.FindByAuthor(ctx, userID, []entity.PostStatus{entity.PostStatusApproved}, offset, query.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return s.toPostList(posts, query.Page, query.Limit, total), nil
}

func (s *postService) GetPendingPosts(ctx context.Context, query dto.PaginationQuery) (*postDto.PostListResponse, error) {
	offset := query.Normalize(20)

	posts, total, err := s.postRepo.FindPending(ctx, offset, query.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return s.toPostList(posts, query.Page, query.Limit, total), nil
}

func (s *postService) Search(ctx context.Context, query postDto.SearchQuery) (*postDto.PostListResponse, error) {
	offset := query.Normalize(10)
	term := strings.TrimSpace(query.Q)
	if term == "" {
		return nil, apperror.Validation("search query is required")
	}

	if s.meili != nil {
		ids, total, err := s.meili.SearchPosts(term, offset, query.Limit)
		if err == nil {
			posts, err := s.postRepo.FindPublicByIDs(ctx, ids)
			if err != nil {
				return nil, apperror.Internal(err)
			}
			return s.toPostList(posts, query.Page, query.Limit, total), nil
		}
		log.Printf("Meilisearch query failed, falling back to database: %v", err)
	}

	posts, total, err := s.postRepo.SearchPublic(ctx, term, offset, query.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return s.toPostList(posts, query.Page, query.Limit, total), nil
}

func (s *postService) find(ctx context.Context, postID uint) (*entity.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, apperror.Internal(err)
	}
	return post, nil
}

func (s *postService) findActive(ctx context.Context, postID uint) (*entity.Post, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsActive {
		return nil, errPostNotFound
	}
	return post, nil
}

func (s *postService) reload(ctx context.Context, postID uint) (*postDto.PostResponse, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	resp := s.toPostResponse(post)
	return &resp, nil
}

func (s *postService) uploadImages(ctx context.Context, files []dto.ImageFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.imageStorage == nil {
		return nil, apperror.Validation("image uploads are not enabled")
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.imageStorage.UploadImage(ctx, f.Reader, imageFolder, f.FileName)
		if err != nil {
			s.deleteImages(ctx, urls)
			return nil, apperror.Internal(fmt.Errorf("upload %s: %w", f.FileName, err))
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// deleteImages removes stored images best-effort. URLs that were not
// uploaded through storage are skipped.
func (s *postService) deleteImages(ctx context.Context, urls []string) {
	if s.imageStorage == nil {
		return
	}
	for _, u := range urls {
		if storage.ExtractPublicID(u) == "" {
			continue
		}
		if err := s.imageStorage.DeleteImage(ctx, u); err != nil {
			log.Printf("Failed to delete image %s: %v", u, err)
		}
	}
}
