package auth

import (
	"context"
	"fmt"
	"strings"
)

const (
	// LocalDevAPIKey is the hardcoded token for local development only
	LocalDevAPIKey = "sk_local_lostfound_dev_key"
	// LocalDevActor is the user LocalDevAPIKey resolves to
	LocalDevActor = "lostfound-dev"
	// devTokenPrefix lets local runs act as any user: "dev:<userId>"
	devTokenPrefix = "dev:"
)

// DevAuthorizer provides a simple authorizer for local development.
// It recognizes LocalDevAPIKey and "dev:<userId>" tokens.
type DevAuthorizer struct{}

func NewDevAuthorizer() *DevAuthorizer {
	return &DevAuthorizer{}
}

func (d *DevAuthorizer) Authorize(_ context.Context, token string) (*ActorInfo, error) {
	switch {
	case token == "":
		return nil, ErrMissingToken
	case token == LocalDevAPIKey:
		return &ActorInfo{ActorID: LocalDevActor, Source: "dev"}, nil
	case strings.HasPrefix(token, devTokenPrefix) && len(token) > len(devTokenPrefix):
		return &ActorInfo{ActorID: strings.TrimPrefix(token, devTokenPrefix), Source: "dev"}, nil
	default:
		return nil, fmt.Errorf("%w: not a local development token", ErrInvalidToken)
	}
}
