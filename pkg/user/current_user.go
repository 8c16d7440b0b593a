package user

import (
	"context"
	"errors"
)

// ErrNoUser is returned when the request carries no authenticated user.
var ErrNoUser = errors.New("no authenticated user")

type currentUserKey struct{}

// WithUser attaches the authenticated user to ctx. The session middleware is the only production caller.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// CurrentId returns the id every user-owned read and write is scoped by.
func CurrentId(ctx context.Context) (int, error) {
	u, ok := ctx.Value(currentUserKey{}).(User)
	if !ok || u.Id == 0 {
		return 0, ErrNoUser
	}
	return u.Id, nil
}
