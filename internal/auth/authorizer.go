package auth

import (
	"context"
)

// ActorInfo identifies the authenticated caller.
type ActorInfo struct {
	ActorID string `json:"actor_id"` // owner id stamped on reports
	Source  string `json:"source"`   // "jwt" or "dev"
}

// Authorizer validates a bearer token and resolves the caller.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*ActorInfo, error)
}
