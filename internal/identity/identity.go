// Package identity resolves who is making a request. Games run fine without
// one; an identified user is only used to seed the creator of a new game.
package identity

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// User represents the signed-in user behind a request
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Provider resolves the current user, if any
type Provider interface {
	CurrentUser(ctx context.Context) (*User, bool)
}

type ctxKey struct{}

// WithUser returns a context carrying u
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user stored in ctx
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// ContextProvider reads the user placed in the context by Middleware
type ContextProvider struct{}

// CurrentUser implements Provider
func (ContextProvider) CurrentUser(ctx context.Context) (*User, bool) {
	return FromContext(ctx)
}

// Middleware attaches a user built from the identity headers set by the
// fronting auth proxy. Requests without them proceed as guests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		name := strings.TrimSpace(r.Header.Get(HeaderUserName))
		if name == "" {
			name = id
		}
		ctx := WithUser(r.Context(), &User{ID: id, DisplayName: name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
