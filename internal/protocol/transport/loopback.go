package transport

import (
	"github.com/danmuck/tagwire/internal/protocol/client"
	"github.com/danmuck/tagwire/internal/protocol/dispatch"
)

// LoopbackMode selects how a Loopback settles its promises.
type LoopbackMode int

const (
	// LoopbackRaw resolves with the reply payload bytes (tag stripped).
	LoopbackRaw LoopbackMode = iota
	// LoopbackDecoded resolves with the value already decoded.
	LoopbackDecoded
)

// Loopback is an in-memory client.Transport that resolves requests against
// a local dispatcher on a separate goroutine.
type Loopback struct {
	d    *dispatch.Dispatcher
	mode LoopbackMode
}

func NewLoopback(d *dispatch.Dispatcher, mode LoopbackMode) (*Loopback, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	return &Loopback{d: d, mode: mode}, nil
}

func (l *Loopback) NewRequest(payload []byte) (*client.Promise, error) {
	if len(payload) == 0 {
		return nil, dispatch.ErrEmptyRequest
	}
	req := make([]byte, len(payload))
	copy(req, payload)

	p := client.NewPromise()
	go func() {
		resp, err := l.d.Resolve(req)
		if err != nil {
			p.Reject(err)
			return
		}
		if l.mode == LoopbackRaw {
			p.Resolve(client.Bytes(resp[1:]))
			return
		}
		f, _ := l.d.Field(resp[0])
		v, _ := f.Decode(resp[1:])
		p.Resolve(client.Decoded(v))
	}()
	return p, nil
}
