package flow

import "github.com/google/uuid"

// NewThreadID returns a fresh opaque thread identifier. Thread IDs are
// caller-supplied keys; this helper exists for callers that do not already
// have a natural key (an order number, a conversation ID).
func NewThreadID() string {
	return uuid.NewString()
}
