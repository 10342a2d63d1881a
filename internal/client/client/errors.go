package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("user already exists")
	ErrConflict      = errors.New("credential changed concurrently")
	ErrBadRequest    = errors.New("rejected by server")
)
