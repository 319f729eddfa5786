// Package session carries the authenticated caller into services.
package session

import (
	"context"

	"github.com/google/uuid"
)

type Session struct {
	UserID uuid.UUID
	Email  string
}

func (s Session) Valid() bool {
	return s.UserID != uuid.Nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by the auth middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || !s.Valid() {
		return Session{}, false
	}
	return s, true
}
