package periods

import "errors"

var (
	ErrNotFound       = errors.New("period not found")
	ErrNoActive       = errors.New("no active period")
	ErrInvalidInput   = errors.New("invalid period input")
	ErrDuplicateClave = errors.New("period clave already exists")
)
