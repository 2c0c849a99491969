package apperrors

import (
	"errors"
)

var (
	ErrEmailTaken   = errors.New("email already in use")
	ErrUserNotFound = errors.New("user not found")

	// Same error for unknown email and wrong password, so callers
	// can't tell accounts apart by the failure message
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshTokenInvalid  = errors.New("refresh token is invalid")

	ErrAccessTokenInvalid = errors.New("access token is invalid or expired")
)
