package main

import (
	"context"
	"net"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/tagwire/internal/admin"
	"github.com/danmuck/tagwire/internal/config"
	"github.com/danmuck/tagwire/internal/observability"
	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/transport"
	"golang.org/x/sync/errgroup"
)

// node wires one dispatcher to the stream listener and the admin surface.
type node struct {
	cfg    config.NodeConfig
	d      *dispatch.Dispatcher
	stream *transport.Server
	admin  *admin.Server
}

func newNode(cfg config.NodeConfig) (*node, error) {
	d, err := config.BuildDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	idle, err := cfg.IdleTimeoutDuration()
	if err != nil {
		return nil, err
	}
	stream, err := transport.NewServer(d, idle)
	if err != nil {
		return nil, err
	}
	n := &node{cfg: cfg, d: d, stream: stream}
	if addr := strings.TrimSpace(cfg.AdminAddr); addr != "" && addr != "off" {
		if n.admin, err = admin.New(cfg.Name, addr, d, cfg.CorsOrigins); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// serve runs until ctx ends or either listener fails.
func (n *node) serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.stream.Serve(gctx, ln)
	})
	if n.admin != nil {
		g.Go(func() error {
			return n.admin.Serve(gctx)
		})
	}
	return g.Wait()
}

func run(path string) error {
	cfg, err := config.LoadNodeConfig(path)
	if err != nil {
		return err
	}
	logger := observability.NodeLogger("tagwired", cfg.Name)
	observability.RegisterMetrics()

	n, err := newNode(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	logger.Info().
		Str("listen", ln.Addr().String()).
		Str("admin", cfg.AdminAddr).
		Int("fields", len(cfg.Fields)).
		Msg("node starting")
	return n.serve(ctx, ln)
}
