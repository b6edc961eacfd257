package client

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/danmuck/tagwire/internal/testutil/testlog"
)

func u16Field(t *testing.T) field.Field {
	t.Helper()
	reg := field.NewRegistry()
	reg.MustDeclare(0)
	return reg.MustDeclare(2)
}

// rawDoubler replies asynchronously with the LE payload of 2*v.
func rawDoubler(t *testing.T) TransportFunc {
	return func(payload []byte) (*Promise, error) {
		if len(payload) != 3 {
			t.Errorf("unexpected payload % x", payload)
		}
		v := binary.LittleEndian.Uint16(payload[1:])
		p := NewPromise()
		go func() {
			out := make([]byte, 2)
			binary.LittleEndian.PutUint16(out, 2*v)
			p.Resolve(Bytes(out))
		}()
		return p, nil
	}
}

func TestCallDecodesRawBytes(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	c, err := New(rawDoubler(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, v := range []uint64{0, 1, 0x10, 0x7fff} {
		reply, err := c.Call(context.Background(), f, v)
		if err != nil {
			t.Fatalf("call %d: %v", v, err)
		}
		if !reply.Present || reply.Value != 2*v || reply.Kind != KindBytes {
			t.Fatalf("call %d got %+v", v, reply)
		}
	}
}

func TestCallReturnsDecodedValueUnchanged(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	const k = 0xdeadbeef // wider than the field: must not be re-decoded
	c, err := New(TransportFunc(func([]byte) (*Promise, error) {
		return Resolved(Decoded(k)), nil
	}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	reply, err := c.Call(context.Background(), f, 5)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if reply.Value != k || !reply.Present || reply.Kind != KindDecoded {
		t.Fatalf("got %+v", reply)
	}
}

func TestCallEmptyRawReplyIsAbsent(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) {
		return Resolved(Bytes(nil)), nil
	}))
	reply, err := c.Call(context.Background(), f, 1)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if reply.Present {
		t.Fatalf("expected absent reply, got %+v", reply)
	}
}

func TestCallSynchronousTransportErrorPropagates(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	boom := errors.New("link down")
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) {
		return nil, boom
	}))
	if _, err := c.Call(context.Background(), f, 1); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCallEncodeErrorNeverReachesTransport(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	var sent atomic.Int32
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) {
		sent.Add(1)
		return Resolved(Decoded(0)), nil
	}))
	if _, err := c.Call(context.Background(), f, 1<<16); !errors.Is(err, field.ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
	if sent.Load() != 0 {
		t.Fatalf("transport should not be invoked")
	}
}

func TestCallRejectedPromise(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	boom := errors.New("peer reset")
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) {
		p := NewPromise()
		go p.Reject(boom)
		return p, nil
	}))
	if _, err := c.Call(context.Background(), f, 1); !errors.Is(err, boom) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestCallContextCancelsPromise(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	var pending *Promise
	canceled := make(chan error, 1)
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) {
		pending = NewPromise()
		pending.OnCancel(func(err error) { canceled <- err })
		return pending, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Call(ctx, f, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	select {
	case cause := <-canceled:
		if !errors.Is(cause, ErrCanceled) || !errors.Is(cause, context.DeadlineExceeded) {
			t.Fatalf("unexpected cancel cause %v", cause)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancel hook not invoked")
	}
	if pending.Resolve(Decoded(1)) {
		t.Fatalf("canceled promise must not resolve")
	}
}

func TestCallNilPromiseAndEmptyResult(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	c, _ := New(TransportFunc(func([]byte) (*Promise, error) { return nil, nil }))
	if _, err := c.Call(context.Background(), f, 1); !errors.Is(err, ErrNilPromise) {
		t.Fatalf("expected ErrNilPromise, got %v", err)
	}
	c, _ = New(TransportFunc(func([]byte) (*Promise, error) { return Resolved(Result{}), nil }))
	if _, err := c.Call(context.Background(), f, 1); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrNilTransport) {
		t.Fatalf("expected ErrNilTransport, got %v", err)
	}
}

func TestGoDeliversOnDone(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	c, _ := New(rawDoubler(t))
	done := make(chan *Call, 4)
	for i := uint64(1); i <= 4; i++ {
		c.Go(context.Background(), f, done, i)
	}
	seen := make(map[uint64]bool)
	for i := 0; i < 4; i++ {
		select {
		case call := <-done:
			if call.Error != nil {
				t.Fatalf("call error: %v", call.Error)
			}
			if call.Reply.Value != 2*call.Args[0] {
				t.Fatalf("arg=%d got %d", call.Args[0], call.Reply.Value)
			}
			seen[call.Args[0]] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for call %d", i)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct calls, got %v", seen)
	}
}

func TestGoUnbufferedDonePanics(t *testing.T) {
	testlog.Start(t)
	f := u16Field(t)
	c, _ := New(rawDoubler(t))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	c.Go(context.Background(), f, make(chan *Call), 1)
}
