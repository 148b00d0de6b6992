package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(key string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.alerts index: active_alert_key dup key: { : %q }", key),
	}}}
}

func duplicateIDError(id string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.contacts index: _id_ dup key: { _id: %q }", id),
	}}}
}

var errFlaky = errors.New("flaky")

func flakyOnly(err error) bool { return errors.Is(err, errFlaky) }

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetries(func() error { calls++; return nil }, 3, flakyOnly)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	expected := errors.New("some other error")
	err := WithRetries(func() error { calls++; return expected }, 3, flakyOnly)

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	calls := 0
	err := WithRetries(func() error { calls++; return errFlaky }, 2, flakyOnly)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, 3, flakyOnly)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_ZeroRetries(t *testing.T) {
	calls := 0
	err := WithRetries(func() error { calls++; return errFlaky }, 0, flakyOnly)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestTry_DoesNotRetryDuplicateKey(t *testing.T) {
	calls := 0
	err := Try(func() error { calls++; return duplicateKeyError("inventory") })

	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.Equal(t, 1, calls)
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	assert.True(t, IsMongoDuplicateKeyError(duplicateKeyError("x")))
	assert.True(t, IsMongoDuplicateKeyError(fmt.Errorf("wrapped: %w", duplicateKeyError("x"))))
	assert.True(t, IsMongoDuplicateKeyError(mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 11000}}},
	}))
	assert.False(t, IsMongoDuplicateKeyError(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}))
	assert.False(t, IsMongoDuplicateKeyError(errors.New("plain")))
	assert.False(t, IsMongoDuplicateKeyError(nil))
}

func TestIsTransientError(t *testing.T) {
	assert.False(t, IsTransientError(nil))
	assert.False(t, IsTransientError(context.Canceled))
	assert.False(t, IsTransientError(duplicateKeyError("x")))
	assert.True(t, IsTransientError(context.DeadlineExceeded))
}

func TestIsDuplicateIDError(t *testing.T) {
	assert.True(t, IsDuplicateIDError(duplicateIDError("c1")))
	assert.True(t, IsDuplicateIDError(fmt.Errorf("wrapped: %w", duplicateIDError("c1"))))
	assert.False(t, IsDuplicateIDError(duplicateKeyError("x")))
	assert.False(t, IsDuplicateIDError(errors.New("plain")))
	assert.False(t, IsDuplicateIDError(nil))
}

func TestTryInsert_CommittedFirstAttemptIsSuccess(t *testing.T) {
	calls := 0
	err := TryInsert(func() error {
		calls++
		if calls == 1 {
			// the write landed but the reply was lost
			return context.DeadlineExceeded
		}
		return duplicateIDError("c1")
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTryInsert_DuplicateIDOnFirstAttemptIsReturned(t *testing.T) {
	calls := 0
	err := TryInsert(func() error { calls++; return duplicateIDError("c1") }, func() (bool, error) { return true, nil })

	assert.True(t, IsDuplicateIDError(err))
	assert.Equal(t, 1, calls)
}

func TestTryInsert_SecondaryIndexConflictOnRetryIsReturned(t *testing.T) {
	calls := 0
	err := TryInsert(func() error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return duplicateKeyError("inventory")
	}, func() (bool, error) { return false, nil })

	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.False(t, IsDuplicateIDError(err))
	assert.Equal(t, 2, calls)
}

func TestTryInsert_SecondaryIndexConflictOnOwnCommittedDocIsSuccess(t *testing.T) {
	calls, checks := 0, 0
	err := TryInsert(func() error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return duplicateKeyError("low_stock:inventory:i1")
	}, func() (bool, error) { checks++; return true, nil })

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, checks)
}

func TestTryInsert_NonDuplicateErrorsSkipCommitCheck(t *testing.T) {
	checks := 0
	expected := errors.New("validation failed")
	err := TryInsert(func() error { return expected }, func() (bool, error) { checks++; return true, nil })

	assert.ErrorIs(t, err, expected)
	assert.Zero(t, checks)
}
