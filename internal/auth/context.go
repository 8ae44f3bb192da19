package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// UserContext identifies the caller for audit attribution only.
type UserContext struct {
	MerchantID string
	UserID     string
	Role       string
}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(ctxKey{}).(UserContext)
	return u, ok
}

// GetUserID returns the caller id, or "" for system-originated work.
func GetUserID(ctx context.Context) string {
	if u, ok := FromContext(ctx); ok {
		return u.UserID
	}
	return ""
}

// Middleware copies the gateway-populated identity headers into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserContext{
			MerchantID: r.Header.Get("X-Merchant-Id"),
			UserID:     r.Header.Get("X-User-Id"),
			Role:       r.Header.Get("X-User-Role"),
		}
		if u.UserID != "" || u.MerchantID != "" {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}
