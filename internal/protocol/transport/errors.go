package transport

import "errors"

var (
	ErrClosed            = errors.New("transport: closed")
	ErrUnexpectedTag     = errors.New("transport: unexpected reply tag")
	ErrUnsolicitedReply  = errors.New("transport: reply without pending request")
	ErrAddressRequired   = errors.New("transport: address required")
	ErrNilDispatcher     = errors.New("transport: nil dispatcher")
	ErrNilRegistry       = errors.New("transport: nil registry")
	ErrMalformedEnvelope = errors.New("transport: malformed envelope")
)
