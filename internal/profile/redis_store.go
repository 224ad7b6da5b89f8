package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/repcoach/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const (
	profileKeyPrefix = "repcoach-profile||"
	emailKeyPrefix   = "repcoach-profile-email||"
	fitnessKeyPrefix = "repcoach-fitness||"

	maxFitnessTxAttempts = 100
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps profiles and fitness data as JSON values, with a separate
// email -> id key guarding email uniqueness.
type RedisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user.id", id))

	p := &Profile{}
	if err := s.getJSON(ctx, profileKeyPrefix+id, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.getByEmail")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	cmd := s.redisClient.Get(ctx, emailKeyPrefix+NormalizeEmail(email))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, cmd.Val())
}

func (s *RedisStore) Create(ctx context.Context, p *Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	emailKey := emailKeyPrefix + NormalizeEmail(p.Email)
	claimed, err := s.redisClient.SetNX(ctx, emailKey, p.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return ErrEmailTaken
	}

	if err := s.setJSON(ctx, profileKeyPrefix+p.ID, p); err != nil {
		// give the email back, the profile never made it
		s.redisClient.Del(ctx, emailKey)
		return err
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, p *Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	old, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}

	oldEmail, newEmail := NormalizeEmail(old.Email), NormalizeEmail(p.Email)
	if oldEmail != newEmail {
		claimed, err := s.redisClient.SetNX(ctx, emailKeyPrefix+newEmail, p.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("claim email: %w", err)
		}
		if !claimed {
			return ErrEmailTaken
		}
		if err := s.redisClient.Del(ctx, emailKeyPrefix+oldEmail).Err(); err != nil {
			return fmt.Errorf("release old email: %w", err)
		}
	}

	return s.setJSON(ctx, profileKeyPrefix+p.ID, p)
}

func (s *RedisStore) FitnessData(ctx context.Context, userID string) (_ *FitnessData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.fitnessData")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	data := &FitnessData{}
	if err := s.getJSON(ctx, fitnessKeyPrefix+userID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) PutFitnessData(ctx context.Context, userID string, data *FitnessData) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.putFitnessData")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.setJSON(ctx, fitnessKeyPrefix+userID, data)
}

// UpdateFitnessData watches the fitness key and retries when another
// client writes it between our read and the EXEC.
func (s *RedisStore) UpdateFitnessData(ctx context.Context, userID string, fn FitnessUpdate) (_ *FitnessData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profile.redis.updateFitnessData")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	key := fitnessKeyPrefix + userID
	var updated *FitnessData
	txf := func(tx *redis.Tx) error {
		var current *FitnessData
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current = &FitnessData{}
			if err := json.Unmarshal(raw, current); err != nil {
				return fmt.Errorf("unmarshal %s: %w", key, err)
			}
		}

		updated, err = fn(current)
		if err != nil {
			return err
		}
		b, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxFitnessTxAttempts; attempt++ {
		err = s.redisClient.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		span.SetAttributes(attribute.Int("tx.attempt", attempt))
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v any) error {
	cmd := s.redisClient.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal([]byte(cmd.Val()), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, key, b, 0).Err()
}
