package realtime

import (
	"context"

	"github.com/google/uuid"
)

// AccessGate answers whether a user may receive and publish events for a
// group. Implementations must deny when the check cannot be completed: an
// unreachable collaborator never grants access.
type AccessGate interface {
	IsActiveMember(ctx context.Context, userID, groupID uuid.UUID) bool
}
