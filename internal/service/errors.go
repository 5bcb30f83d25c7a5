package service

import "errors"

var (
	// ErrInvalidCredentials is returned for both "user not found" and
	// "password mismatch" so the two cases are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername is returned when registering an already-taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrForbidden is returned when the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownRole is returned when assigning a role that does not exist.
	ErrUnknownRole = errors.New("unknown role")

	// ErrRotationUnknown is returned when the presented refresh token has no record.
	ErrRotationUnknown = errors.New("unknown refresh token")
	// ErrRotationExpired is returned when the presented refresh token is past expiry.
	ErrRotationExpired = errors.New("refresh token expired")
	// ErrReplayDetected is returned when a revoked or already-rotated refresh
	// token is presented again. The whole rotation chain is revoked as a side
	// effect before this error is returned; the caller must force re-login.
	ErrReplayDetected = errors.New("refresh token reuse detected")
)
