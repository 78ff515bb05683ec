package service

import (
	"testing"
	"time"

	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostDoc(t *testing.T) {
	s := &meiliSearchService{renderer: content.NewRenderer()}
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	doc := s.buildPostDoc(&entity.Post{
		ID:        7,
		Title:     "Hello",
		Content:   "<p>first</p><p>second &amp; third</p>",
		Category:  "news",
		AuthorID:  3,
		Author:    &entity.User{Username: "alice"},
		CreatedAt: created,
	})

	assert.Equal(t, uint(7), doc.ID)
	assert.Equal(t, "first second & third", doc.Content)
	assert.Equal(t, "alice", doc.Author)
	assert.Equal(t, created.Unix(), doc.CreatedAt)
}

func TestIndexPostRefusesNonPublicPosts(t *testing.T) {
	s := &meiliSearchService{renderer: content.NewRenderer()}

	err := s.IndexPost(&entity.Post{ID: 1, Status: entity.PostStatusPending, IsActive: true})
	assert.Error(t, err)

	err = s.IndexPost(&entity.Post{ID: 1, Status: entity.PostStatusApproved, IsActive: false})
	assert.Error(t, err)
}

func TestDecodeSearchIDs(t *testing.T) {
	ids, total, err := decodeSearchIDs([]byte(`{"hits":[{"id":4},{"id":2}],"estimatedTotalHits":9,"query":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 2}, ids)
	assert.Equal(t, int64(9), total)

	_, _, err = decodeSearchIDs([]byte(`not json`))
	assert.Error(t, err)
}
