package simviewer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifierComponent  = errors.New("invalid identifier component")
	ErrInvalidPaletteConfiguration = errors.New("invalid palette configuration")
	ErrDimensionMismatch           = errors.New("dimension mismatch")
	ErrUnknownIdentifier           = errors.New("unknown identifier")
	ErrEmptyRegistry               = errors.New("registry holds no elements")
	ErrHostOperationFailed         = errors.New("host operation failed")
	ErrInvalidVectorStretch        = errors.New("vector stretch must be finite and positive")
)

// hostError wraps a failure reported by the host scene graph so that both
// ErrHostOperationFailed and the host error match errors.Is.
func hostError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrHostOperationFailed, op, err)
}
