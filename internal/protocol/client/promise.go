package client

import (
	"context"
	"fmt"
	"sync"
)

// Promise is a single-shot completion slot. The first Resolve, Reject or
// Cancel wins; later calls report false.
type Promise struct {
	done chan struct{}
	once sync.Once

	result Result
	err    error

	mu       sync.Mutex
	canceled bool
	cause    error
	onCancel []func(error)
}

func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved returns an already settled promise.
func Resolved(r Result) *Promise {
	p := NewPromise()
	p.Resolve(r)
	return p
}

func (p *Promise) settle(r Result, err error) bool {
	settled := false
	p.once.Do(func() {
		p.result = r
		p.err = err
		close(p.done)
		settled = true
	})
	return settled
}

func (p *Promise) Resolve(r Result) bool {
	return p.settle(r, nil)
}

// Reject settles the promise with err (ErrRejected when err is nil).
func (p *Promise) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	return p.settle(Result{}, err)
}

// Cancel rejects the promise with cause wrapped in ErrCanceled and runs
// the OnCancel hooks.
func (p *Promise) Cancel(cause error) bool {
	err := ErrCanceled
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrCanceled, cause)
	}
	if !p.settle(Result{}, err) {
		return false
	}
	p.mu.Lock()
	p.canceled = true
	p.cause = err
	hooks := p.onCancel
	p.onCancel = nil
	p.mu.Unlock()
	for _, fn := range hooks {
		fn(err)
	}
	return true
}

// OnCancel registers fn to run if the promise is canceled. Transports use
// it to abandon in-flight work. fn runs immediately if already canceled.
func (p *Promise) OnCancel(fn func(error)) {
	p.mu.Lock()
	if p.canceled {
		cause := p.cause
		p.mu.Unlock()
		fn(cause)
		return
	}
	p.onCancel = append(p.onCancel, fn)
	p.mu.Unlock()
}

func (p *Promise) Done() <-chan struct{} { return p.done }

// Result returns the settled outcome without blocking.
func (p *Promise) Result() (Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	default:
		return Result{}, ErrPending
	}
}

// Await blocks until the promise settles or ctx ends. A ctx error leaves the
// promise unsettled.
func (p *Promise) Await(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
