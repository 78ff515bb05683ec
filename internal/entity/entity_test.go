package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to PostStatus
		want     bool
	}{
		{PostStatusPending, PostStatusApproved, true},
		{PostStatusPending, PostStatusRejected, true},
		{PostStatusPending, PostStatusPending, false},
		{PostStatusApproved, PostStatusRejected, false},
		{PostStatusApproved, PostStatusApproved, false},
		{PostStatusRejected, PostStatusApproved, false},
		{PostStatusRejected, PostStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPostVisibleTo(t *testing.T) {
	author := &User{ID: 1, Role: RoleRegistered}
	stranger := &User{ID: 2, Role: RoleRegistered}
	admin := &User{ID: 3, Role: RoleAdmin}
	moderator := &User{ID: 4, Role: RoleModerator}

	for _, status := range []PostStatus{PostStatusPending, PostStatusRejected} {
		p := &Post{AuthorID: author.ID, Status: status}
		assert.True(t, p.VisibleTo(author), status)
		assert.True(t, p.VisibleTo(admin), status)
		assert.True(t, p.VisibleTo(moderator), status)
		assert.False(t, p.VisibleTo(stranger), status)
		assert.False(t, p.VisibleTo(nil), status)
	}

	approved := &Post{AuthorID: author.ID, Status: PostStatusApproved}
	assert.True(t, approved.VisibleTo(nil))
	assert.True(t, approved.VisibleTo(stranger))
}

func TestRoleIsAssignable(t *testing.T) {
	assert.True(t, RoleAdmin.IsAssignable())
	assert.True(t, RoleRegistered.IsAssignable())
	assert.False(t, RoleModerator.IsAssignable())
	assert.False(t, Role("root").IsAssignable())
}
