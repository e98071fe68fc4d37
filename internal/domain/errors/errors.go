package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrInvalidState       = errors.New("operation not allowed in current enrollment state")
	ErrMissingOrder       = errors.New("no payment order found")
	ErrOrderMismatch      = errors.New("payment order does not belong to enrollment")
	ErrUpstream           = errors.New("payment gateway error")
	ErrUpstreamTimeout    = errors.New("payment gateway timeout")
	ErrDuplicatePayment   = errors.New("payment already applied")
	ErrConcurrentUpdate   = errors.New("enrollment changed concurrently")
)
