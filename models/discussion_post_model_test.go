package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from PostStatus
		to   PostStatus
		ok   bool
	}{
		{"draft publishes directly", PostDraft, PostPublished, true},
		{"draft enters moderation queue", PostDraft, PostPendingApproval, true},
		{"pending approval publishes", PostPendingApproval, PostPublished, true},
		{"rejection returns to draft", PostPendingApproval, PostDraft, true},
		{"published archives", PostPublished, PostArchived, true},
		{"archived restores", PostArchived, PostPublished, true},
		{"published cannot go back to draft", PostPublished, PostDraft, false},
		{"published cannot re-enter moderation", PostPublished, PostPendingApproval, false},
		{"deleted is terminal", PostDeleted, PostPublished, false},
		{"any state can delete", PostArchived, PostDeleted, true},
		{"self transition is not an edge", PostPublished, PostPublished, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to))
		})
	}
}
