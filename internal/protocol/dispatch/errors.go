package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTag     = errors.New("dispatch: unknown tag")
	ErrUnboundTag     = errors.New("dispatch: no handler bound for tag")
	ErrNilHandler     = errors.New("dispatch: nil handler")
	ErrEmptyRequest   = errors.New("dispatch: empty request")
	ErrUnknownHandler = errors.New("dispatch: unknown handler name")
	ErrNilRegistry    = errors.New("dispatch: nil registry")
)

// UnknownTagError carries the offending tag; it matches ErrUnknownTag.
type UnknownTagError struct {
	Tag uint8
}

func (e UnknownTagError) Error() string {
	return fmt.Sprintf("dispatch: unknown tag %d", e.Tag)
}

func (e UnknownTagError) Is(target error) bool {
	return target == ErrUnknownTag
}
