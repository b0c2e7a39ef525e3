package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("invalid or revoked token")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrOAuthAccount       = errors.New("email is linked to another sign-in provider")
	ErrEmailUnverified    = errors.New("email not verified by sign-in provider")
)
