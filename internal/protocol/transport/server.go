package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danmuck/tagwire/internal/observability"
	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server serves one dispatcher over accepted stream connections.
type Server struct {
	d           *dispatch.Dispatcher
	idleTimeout time.Duration

	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

// NewServer builds a server. idleTimeout closes connections that send
// nothing for that long; zero disables it.
func NewServer(d *dispatch.Dispatcher, idleTimeout time.Duration) (*Server, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	return &Server{
		d:           d,
		idleTimeout: idleTimeout,
		conns:       make(map[string]net.Conn),
	}, nil
}

// Serve accepts connections until ctx ends or ln fails. It closes ln and all
// open connections before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		s.closeConns()
	}()

	log.Info().Msgf("transport.Server listening addr=%s fields=%d", ln.Addr(), len(s.d.Fields()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.closeConns()
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		id := uuid.NewString()
		s.track(id, conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(id)
			s.handle(id, conn)
		}()
	}
}

func (s *Server) handle(id string, conn net.Conn) {
	closed := observability.ConnectionOpened()
	defer closed()
	defer conn.Close()

	logger := log.With().Str("conn", id).Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("transport.Server connection opened")

	r := bufio.NewReader(conn)
	b := dispatch.NewBuffered(s.d)
	for {
		if s.idleTimeout > 0 && !b.Loading() {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		status, err := b.LoadFrom(r)
		switch status {
		case dispatch.PacketResolved:
			// Batch replies while pipelined input is already buffered.
			if r.Buffered() > 0 {
				continue
			}
			if _, err := b.WriteTo(conn); err != nil {
				logger.Warn().Msgf("transport.Server write failed err=%v", err)
				return
			}
		case dispatch.PacketDropped:
			_, _ = b.WriteTo(conn)
			logger.Warn().Msgf("transport.Server dropped request, closing err=%v", err)
			return
		default:
			_, _ = b.WriteTo(conn)
			logClosed(logger, err)
			return
		}
	}
}

func logClosed(logger zerolog.Logger, err error) {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		logger.Debug().Msg("transport.Server connection closed")
		return
	}
	logger.Warn().Msgf("transport.Server connection ended err=%v", err)
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
