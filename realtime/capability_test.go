package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform(t *testing.T) {
	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{"member", ActionSendMessage, true},
		{"member", ActionDeleteAny, false},
		{"member", ActionModerate, false},
		{"moderator", ActionModerate, true},
		{"moderator", ActionManageMember, false},
		{"instructor", ActionManageMember, true},
		{"instructor", ActionModerate, true},
		{"", ActionSendMessage, false},
		{"admin", ActionSendMessage, false}, // platform role, not a group role
	}

	for _, tc := range cases {
		t.Run(tc.role+"/"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.want, CanPerform(tc.role, tc.action))
		})
	}
}
