package employees

import "errors"

var (
	ErrNotFound       = errors.New("employee not found")
	ErrDuplicateClave = errors.New("employee clave already exists")
	ErrInvalidInput   = errors.New("invalid employee input")
)
