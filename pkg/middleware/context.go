package middleware

import "context"

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserKey      contextKey = "user"
)

// User is the authenticated caller resolved from a bearer token.
type User struct {
	ID   string
	Name string
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext returns the current user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(UserKey).(*User)
	return user
}
