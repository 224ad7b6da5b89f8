package db

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewDBPoolParams struct {
	DBHost   string
	DBPort   string
	DBName   string
	User     string
	Password string
	// zero keeps the pgxpool default
	MaxConns       int32
	TracingEnabled bool
}

func (p NewDBPoolParams) connString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.DBHost, p.DBPort),
		Path:   "/" + p.DBName,
	}
	user := p.User
	if user == "" {
		user = "postgres"
	}
	if p.Password != "" {
		u.User = url.UserPassword(user, p.Password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func poolConfig(params NewDBPoolParams) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(params.connString())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if params.MaxConns > 0 {
		cfg.MaxConns = params.MaxConns
	}
	if params.TracingEnabled {
		cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	}
	return cfg, nil
}

// NewDBPool creates the workout history pool. Connections are opened lazily,
// so a missing database only shows up on the first query or Ping.
func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(params)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}
