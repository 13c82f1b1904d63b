package services

import "errors"

// Policy and concurrency rejections surfaced to handlers. Expected daily
// outcomes (already verified, goal not met) are VerifyResult statuses, not
// errors, so UIs can render them without an error banner.
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotParticipant    = errors.New("user is not participating in this challenge")
	ErrChallengeExpired  = errors.New("challenge has ended")

	// ErrCapacityExceeded: the challenge is full. Enforced at join time only.
	ErrCapacityExceeded = errors.New("challenge is full")

	// ErrEntitlementExceeded: free-tier users may participate in a limited
	// number of concurrent challenges.
	ErrEntitlementExceeded = errors.New("free tier concurrent challenge limit reached")

	// ErrConcurrentModification: the bounded transaction retry was exhausted.
	ErrConcurrentModification = errors.New("concurrent modification, please retry")
)

// txRetries bounds the automatic retry of a conflicted read-modify-write
// before ErrConcurrentModification reaches the caller.
const txRetries = 3
