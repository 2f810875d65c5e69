package otp

import (
	"context"
	"time"
)

// CodeStore holds at most one outstanding code per phone.
//
// Put replaces any earlier code for the phone and resets its miss count.
// TakeIfValid succeeds only for an exact, unused code younger than the
// store's TTL, and clears it in the same atomic step so a code can never be
// accepted twice. Each wrong guess counts against the code; the
// MaxFailedAttempts-th miss burns it, so later guesses fail even when right.
type CodeStore interface {
	Put(ctx context.Context, phone, code string, issuedAt time.Time) error
	TakeIfValid(ctx context.Context, phone, code string, now time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// MaxFailedAttempts is how many wrong guesses an issued code survives.
const MaxFailedAttempts = 5

func expired(issuedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(issuedAt) >= ttl
}
