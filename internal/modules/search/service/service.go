package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/content"
	"github.com/meilisearch/meilisearch-go"
)

const postsIndex = "posts"

type MeiliSearchService interface {
	IndexPost(post *entity.Post) error
	DeletePost(id uint) error
	SearchPosts(query string, offset, limit int) ([]uint, int64, error)
}

type meiliSearchService struct {
	client   meilisearch.ServiceManager
	renderer *content.Renderer
}

func NewMeiliSearchService(client meilisearch.ServiceManager, renderer *content.Renderer) MeiliSearchService {
	s := &meiliSearchService{
		client:   client,
		renderer: renderer,
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"category", "author_id"}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update posts filterable attributes: %v", err)
	}

	sortable := []string{"created_at", "likes_count"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update posts sortable attributes: %v", err)
	}

	searchable := []string{"title", "content", "category", "author"}
	if _, err := s.client.Index(postsIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update posts searchable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliPostDoc struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	AuthorID   uint   `json:"author_id"`
	Author     string `json:"author"`
	LikesCount int    `json:"likes_count"`
	CreatedAt  int64  `json:"created_at"`
}

func (s *meiliSearchService) buildPostDoc(post *entity.Post) meiliPostDoc {
	doc := meiliPostDoc{
		ID:         post.ID,
		Title:      post.Title,
		Content:    s.renderer.PlainText(post.Content),
		Category:   post.Category,
		AuthorID:   post.AuthorID,
		LikesCount: post.LikesCount,
		CreatedAt:  post.CreatedAt.Unix(),
	}
	if post.Author != nil {
		doc.Author = post.Author.Username
	}
	return doc
}

// IndexPost only accepts posts that are visible in the public feed.
func (s *meiliSearchService) IndexPost(post *entity.Post) error {
	if !post.IsPublic() {
		return fmt.Errorf("post %d is not public", post.ID)
	}

	task, err := s.client.Index(postsIndex).AddDocuments([]meiliPostDoc{s.buildPostDoc(post)}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed post %d, task id: %d", post.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeletePost(id uint) error {
	_, err := s.client.Index(postsIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

// SearchPosts returns matching post ids in relevance order.
func (s *meiliSearchService) SearchPosts(query string, offset, limit int) ([]uint, int64, error) {
	raw, err := s.client.Index(postsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Offset:               int64(offset),
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, 0, err
	}
	if raw == nil {
		return []uint{}, 0, nil
	}
	return decodeSearchIDs(*raw)
}

type searchResult struct {
	Hits []struct {
		ID uint `json:"id"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
}

func decodeSearchIDs(raw []byte) ([]uint, int64, error) {
	var result searchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, result.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
