package user

import "context"

/*
 * user lives under internal so only this module can import it. It carries the
 * identity resolved by the authenticator through the request context.
 */

type User struct {
	ID   string
	Name string
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored by WithUser
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
