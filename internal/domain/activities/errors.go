package activities

import "errors"

var (
	ErrNotFound       = errors.New("activity not found")
	ErrDuplicateClave = errors.New("activity clave already exists")
	ErrInvalidInput   = errors.New("invalid activity input")
)
