package crews

import "errors"

var (
	ErrNotFound         = errors.New("crew not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateClave   = errors.New("crew clave already exists")
	ErrInvalidInput     = errors.New("invalid crew input")
)
