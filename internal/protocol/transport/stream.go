package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/tagwire/internal/protocol/client"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/rs/zerolog/log"
)

type pendingReply struct {
	field   field.Field
	promise *client.Promise
}

// Stream is a client.Transport over one connection. Requests are written in
// call order and replies are matched to them first-in first-out; the reply
// width comes from the shared registry.
type Stream struct {
	conn         net.Conn
	reg          *field.Registry
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  []pendingReply
	closed   bool
	closeErr error

	done chan struct{}
}

// NewStream wraps an established connection and starts its reply reader.
func NewStream(conn net.Conn, reg *field.Registry, writeTimeout time.Duration) (*Stream, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	s := &Stream{
		conn:         conn,
		reg:          reg,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Dial connects to cfg.Address, retrying with backoff up to cfg.MaxAttempts
// (unbounded when <= 0).
func Dial(ctx context.Context, cfg DialConfig, reg *field.Registry) (*Stream, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	cfg = cfg.WithDefaults()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}

	var attempt int
	for {
		attempt++
		conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
		if err == nil {
			log.Debug().Msgf("transport.Dial connected addr=%q attempt=%d", cfg.Address, attempt)
			return NewStream(conn, reg, cfg.WriteTimeout)
		}
		log.Warn().Msgf("transport.Dial attempt=%d addr=%q err=%v", attempt, cfg.Address, err)
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return nil, err
		}
		if err := cfg.Backoff.wait(ctx, attempt, rng); err != nil {
			return nil, err
		}
	}
}

// NewRequest writes payload and returns a promise for its reply. The tag
// must be declared in the stream's registry.
func (s *Stream) NewRequest(payload []byte) (*client.Promise, error) {
	if len(payload) == 0 {
		return nil, ErrMalformedEnvelope
	}
	f, ok := s.reg.Lookup(payload[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown tag %d", ErrMalformedEnvelope, payload[0])
	}
	if len(payload) != f.Size() {
		return nil, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrMalformedEnvelope, f, f.Size(), len(payload))
	}

	// writeMu orders queue appends with writes. mu is never held across I/O.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		err := s.closeErr
		s.mu.Unlock()
		return nil, err
	}
	p := client.NewPromise()
	s.pending = append(s.pending, pendingReply{field: f, promise: p})
	s.mu.Unlock()

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			log.Debug().Msgf("transport.Stream set write deadline failed err=%v", err)
		}
	}
	if _, err := s.conn.Write(payload); err != nil {
		s.mu.Lock()
		s.closeLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	return p, nil
}

func (s *Stream) readLoop() {
	defer close(s.done)
	var tag [1]byte
	for {
		if _, err := io.ReadFull(s.conn, tag[:]); err != nil {
			s.fail(err)
			return
		}
		next, ok := s.front()
		if !ok {
			s.fail(fmt.Errorf("%w: tag %d", ErrUnsolicitedReply, tag[0]))
			return
		}
		if next.field.Tag() != tag[0] {
			err := fmt.Errorf("%w: got %d want %d", ErrUnexpectedTag, tag[0], next.field.Tag())
			s.fail(err)
			return
		}
		payload := make([]byte, next.field.Width())
		if _, err := io.ReadFull(s.conn, payload); err != nil {
			s.fail(err)
			return
		}
		item, ok := s.pop()
		if !ok {
			return
		}
		item.promise.Resolve(client.Bytes(payload))
	}
}

func (s *Stream) front() (pendingReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return pendingReply{}, false
	}
	return s.pending[0], true
}

// pop removes the front request; false means the stream closed meanwhile.
func (s *Stream) pop() (pendingReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return pendingReply{}, false
	}
	item := s.pending[0]
	s.pending[0] = pendingReply{}
	s.pending = s.pending[1:]
	return item, true
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && !closedConnErr(err) {
		log.Warn().Msgf("transport.Stream read failed remote=%s err=%v", s.conn.RemoteAddr(), err)
	}
	s.closeLocked(err)
}

func (s *Stream) closeLocked(cause error) {
	if s.closed {
		return
	}
	s.closed = true
	s.closeErr = ErrClosed
	if cause != nil && !errors.Is(cause, ErrClosed) {
		s.closeErr = fmt.Errorf("%w: %w", ErrClosed, cause)
	}
	_ = s.conn.Close()
	for _, item := range s.pending {
		item.promise.Reject(s.closeErr)
	}
	s.pending = nil
}

func closedConnErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// Pending returns the number of requests awaiting replies.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close closes the connection and rejects pending requests with ErrClosed.
// A write blocked on the peer fails once the connection is closed.
func (s *Stream) Close() error {
	_ = s.conn.Close()
	s.mu.Lock()
	s.closeLocked(nil)
	s.mu.Unlock()
	<-s.done
	return nil
}

// Done is closed once the reply reader has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }
