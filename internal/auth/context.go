package auth

import "context"

// TokenHeader carries the login session token on API requests.
const TokenHeader = "X-REPCOACH-TOKEN"

type sessionCtxKey struct{}

func WithSession(ctx context.Context, session *LoginSession) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session stored by the auth middleware, if any.
func SessionFromContext(ctx context.Context) (*LoginSession, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*LoginSession)
	return session, ok && session != nil
}
