package field

import "errors"

var (
	ErrValueOutOfRange = errors.New("field: value out of range")
	ErrValueRequired   = errors.New("field: value required")
	ErrTooManyValues   = errors.New("field: too many values")
	ErrInvalidWidth    = errors.New("field: invalid width")
	ErrWidthTooLarge   = errors.New("field: width too large")
	ErrRegistryFull    = errors.New("field: registry full")
	ErrDuplicateName   = errors.New("field: duplicate name")
)
