package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthorizer accepts HS256 tokens whose subject is the user id.
type JWTAuthorizer struct {
	secret []byte
	issuer string
}

// NewJWTAuthorizer creates a JWT authorizer. An empty issuer disables the issuer check.
func NewJWTAuthorizer(secret, issuer string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret), issuer: issuer}
}

// Authorize parses and validates token.
func (a *JWTAuthorizer) Authorize(_ context.Context, token string) (*ActorInfo, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &ActorInfo{ActorID: claims.Subject, Source: "jwt"}, nil
}

// IssueToken signs a token for subject. Used by lostfoundctl and tests.
func (a *JWTAuthorizer) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
