package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationQueryNormalize(t *testing.T) {
	q := PaginationQuery{}
	offset := q.Normalize(20)

	assert.Equal(t, 0, offset)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)

	q = PaginationQuery{Page: 3, Limit: 10}
	assert.Equal(t, 20, q.Normalize(20))
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(1, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasMore)

	meta = NewPaginationMeta(3, 10, 25)
	assert.False(t, meta.HasMore)

	meta = NewPaginationMeta(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasMore)
}
