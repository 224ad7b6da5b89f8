package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: workoutSessionUniqueKey}

	assert.True(t, isUniqueViolation(dup, workoutSessionUniqueKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup), workoutSessionUniqueKey))
	assert.True(t, isUniqueViolation(dup, ""))
	assert.False(t, isUniqueViolation(dup, "workout_event_pkey"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("23505"), ""))
	assert.False(t, isUniqueViolation(nil, ""))
}
