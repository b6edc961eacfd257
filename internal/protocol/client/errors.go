package client

import "errors"

var (
	ErrNilTransport = errors.New("client: nil transport")
	ErrNilPromise   = errors.New("client: transport returned nil promise")
	ErrEmptyResult  = errors.New("client: promise resolved with empty result")
	ErrPending      = errors.New("client: promise pending")
	ErrCanceled     = errors.New("client: request canceled")
	ErrRejected     = errors.New("client: request rejected")
)
