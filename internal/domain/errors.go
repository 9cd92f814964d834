package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownAsset  = errors.New("unknown asset")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnavailable   = errors.New("upstream unavailable")
	ErrBadResponse   = errors.New("malformed upstream response")
	ErrSessionClosed = errors.New("session not running")
	ErrLockHeld      = errors.New("lock held by another instance")
)
