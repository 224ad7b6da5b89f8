package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	now         func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// Session returns the login session behind the token, or ErrNoSession if
// it is unknown or expired.
func (as *LoginChecker) Session(ctx context.Context, token string) (*LoginSession, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	session, err := parseSessionValue(token, cmd.Val())
	if err != nil {
		return nil, err
	}

	if as.now().Sub(session.CreatedAt) > as.ttl {
		return nil, ErrNoSession
	}

	return session, nil
}
