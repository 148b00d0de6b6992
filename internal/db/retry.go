package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryable decides whether a failed operation may be attempted again.
type IsRetryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation, retrying transient driver failures up to DefaultMaxRetries times.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsTransientError)
}

// TryInsert retries a non-idempotent insert like Try. A duplicate key seen on
// a retry may mean an earlier attempt committed before its error surfaced: a
// duplicate _id is success, and any other duplicate is success when committed
// confirms the document is stored. Duplicates on the first attempt are returned.
func TryInsert(op Operation, committed func() (bool, error)) error {
	attempt := 0
	return Try(func() error {
		attempt++
		err := op()
		if attempt == 1 || !IsMongoDuplicateKeyError(err) {
			return err
		}
		if IsDuplicateIDError(err) {
			return nil
		}
		if committed != nil {
			if ok, cerr := committed(); cerr == nil && ok {
				return nil
			}
		}
		return err
	})
}

// WithRetries runs op once plus up to maxRetries more times while retryable(err) holds.
// Non-retryable errors are returned immediately.
func WithRetries(op Operation, maxRetries int, retryable IsRetryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !retryable(err) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsTransientError reports network failures and timeouts. Duplicate keys and
// other write errors are never transient.
func IsTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	return hasDuplicateKey(err, func(mongo.WriteError) bool { return true })
}

// IsDuplicateIDError reports a duplicate key error raised by the _id index,
// as opposed to a secondary unique index.
func IsDuplicateIDError(err error) bool {
	return hasDuplicateKey(err, func(we mongo.WriteError) bool {
		return strings.Contains(we.Message, "index: _id_ ")
	})
}

func hasDuplicateKey(err error, match func(mongo.WriteError) bool) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 && match(we) {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 && match(writeError.WriteError) {
				return true
			}
		}
	}
	return false
}
