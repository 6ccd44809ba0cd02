package chat

import (
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/history"
)

var (
	ErrQuotaExhausted     = errors.New("daily message quota exhausted")
	ErrBusy               = errors.New("a turn is already in progress for this chat")
	ErrMessageTooLong     = errors.New("message exceeds the character limit for this tier")
	ErrFeatureUnavailable = errors.New("feature not available on this tier")
	ErrSessionNotFound    = errors.New("chat not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrEmptyMessage       = fmt.Errorf("%w: message is empty", history.ErrInvalidOperation)
)

// a failed generator call. the chat was restored to its baseline.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
