package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	postDto "anoa.com/socialforum/internal/modules/post/dto"
	postService "anoa.com/socialforum/internal/modules/post/service"
	"anoa.com/socialforum/pkg/apperror"
	"anoa.com/socialforum/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationCall struct {
	approve bool
	note    string
}

// recordingPostService captures moderation calls and applies the note rule.
type recordingPostService struct {
	postService.PostService
	calls []moderationCall
}

func (s *recordingPostService) Approve(_ context.Context, _, postID uint, note string) (*postDto.PostResponse, error) {
	s.calls = append(s.calls, moderationCall{approve: true, note: note})
	return &postDto.PostResponse{ID: postID}, nil
}

func (s *recordingPostService) Reject(_ context.Context, _, postID uint, note string) (*postDto.PostResponse, error) {
	s.calls = append(s.calls, moderationCall{note: note})
	if note == "" {
		return nil, apperror.Validation("moderation note is required when rejecting a post")
	}
	return &postDto.PostResponse{ID: postID}, nil
}

func setupModeration(t *testing.T) (*gin.Engine, *recordingPostService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	posts := &recordingPostService{}
	h := NewAdminHandler(nil, posts)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.UserIDKey, uint(1))
		c.Next()
	})
	r.PUT("/admin/posts/:id/approve", h.ApprovePost)
	r.PUT("/admin/posts/:id/reject", h.RejectPost)
	return r, posts
}

func put(r *gin.Engine, path string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPut, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestApproveWithoutBody(t *testing.T) {
	r, posts := setupModeration(t)

	w, _ := put(r, "/admin/posts/7/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, posts.calls, 1)
	assert.True(t, posts.calls[0].approve)
	assert.Empty(t, posts.calls[0].note)
}

func TestRejectReadsNoteFromChunkedBody(t *testing.T) {
	r, posts := setupModeration(t)

	// A plain io.Reader leaves the request without a known content length.
	body := io.MultiReader(strings.NewReader(`{"moderation_note":`), strings.NewReader(`"spam"}`))
	w, _ := put(r, "/admin/posts/7/reject", body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, posts.calls, 1)
	assert.Equal(t, "spam", posts.calls[0].note)
}

func TestRejectWithEmptyBodyNeedsNote(t *testing.T) {
	r, posts := setupModeration(t)

	w, out := put(r, "/admin/posts/7/reject", strings.NewReader(""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "moderation note is required when rejecting a post", out["error"])
	require.Len(t, posts.calls, 1)
}

func TestRejectWithMalformedBody(t *testing.T) {
	r, posts := setupModeration(t)

	w, _ := put(r, "/admin/posts/7/reject", strings.NewReader("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, posts.calls)
}
