package history

import "errors"

var (
	ErrNotFound         = errors.New("message not found")
	ErrInvalidOperation = errors.New("invalid operation")
)
