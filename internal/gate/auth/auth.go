// Package auth verifies the identity tokens presented to the gate.
//
// Two verifiers exist: HMACVerifier for HS256 tokens minted with a shared
// secret (the local identity provider and tests) and JWKSVerifier for RS256
// tokens issued by an external provider that publishes its keys as a JWKS.
// Both report failures as common.ErrTokenExpired or common.ErrInvalidToken.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Subject is the verified principal behind a token.
type Subject struct {
	ID    string
	Email string
}

// Verifier checks a raw bearer token and returns its subject.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Subject, error)
}

// Claims are the token claims the gate reads. Email is optional.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type contextKey struct{}

// WithSubject stores s in ctx.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SubjectFromContext returns the subject stored by WithSubject, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}

// ParseBearer extracts the token from an Authorization header value of the
// form "Bearer <token>". The scheme is case-insensitive.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing Authorization header", common.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, strings.TrimSpace(common.BearerPrefix)) {
		return "", fmt.Errorf("%w: expected Bearer <token>", common.ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", common.ErrUnauthorized)
	}
	return token, nil
}

// subjectFromClaims turns a parse result into a Subject or a sentinel error.
func subjectFromClaims(token *jwt.Token, claims *Claims, err error) (*Subject, error) {
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub", common.ErrInvalidToken)
	}
	return &Subject{ID: sub, Email: claims.Email}, nil
}
