package db

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type NewRedisClientParams struct {
	Host           string
	Port           string
	Password       string
	TracingEnabled bool
}

// NewRedisClient connects and pings redis before handing the client out.
func NewRedisClient(ctx context.Context, params NewRedisClientParams) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Host, params.Port),
		Password: params.Password,
		DB:       0,
	})

	if params.TracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s:%s: %w", params.Host, params.Port, err)
	}

	log.Debugf("redis client connected to %s:%s", params.Host, params.Port)
	return rdb, nil
}
