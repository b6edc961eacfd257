package admin

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danmuck/tagwire/internal/observability"
	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

var ErrNilDispatcher = errors.New("admin: nil dispatcher")

// Server exposes a dispatcher's field table and handler bindings over HTTP.
type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	dispatcher *dispatch.Dispatcher
	router     *gin.Engine
}

type FieldInfo struct {
	Tag     uint8  `json:"tag"`
	Name    string `json:"name,omitempty"`
	Width   int    `json:"width"`
	Handler string `json:"handler"`
}

type ResolveResult struct {
	Tag     uint8  `json:"tag"`
	Name    string `json:"name,omitempty"`
	Present bool   `json:"present"`
	Value   uint64 `json:"value"`
	Raw     string `json:"raw"`
}

func New(name, addr string, d *dispatch.Dispatcher, corsOrigins []string) (*Server, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(name, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Name:       name,
		Addr:       addr,
		Appeared:   time.Now(),
		dispatcher: d,
		router:     r,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Router() *gin.Engine { return s.router }

// ListFields reports every field with its current handler, in tag order.
func (s *Server) ListFields() []FieldInfo {
	fields := s.dispatcher.Fields()
	out := make([]FieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, s.info(f))
	}
	return out
}

func (s *Server) info(f field.Field) FieldInfo {
	h, _ := s.dispatcher.Handler(f.Tag())
	return FieldInfo{Tag: f.Tag(), Name: f.Name(), Width: f.Width(), Handler: dispatch.HandlerName(h)}
}

// Bind swaps the handler for tag to the named builtin.
func (s *Server) Bind(tag uint8, handler string) (FieldInfo, error) {
	h, err := dispatch.Lookup(handler)
	if err != nil {
		return FieldInfo{}, err
	}
	if err := s.dispatcher.Replace(tag, h); err != nil {
		return FieldInfo{}, err
	}
	f, _ := s.dispatcher.Field(tag)
	log.Info().
		Str("node", s.Name).
		Uint8("tag", tag).
		Str("handler", dispatch.HandlerName(h)).
		Msg("handler rebound")
	return s.info(f), nil
}

// ResolveValue encodes value for tag, runs it through the dispatcher and
// decodes the reply. A nil value sends the bare tag.
func (s *Server) ResolveValue(tag uint8, value *uint64) (ResolveResult, error) {
	f, ok := s.dispatcher.Field(tag)
	if !ok {
		return ResolveResult{}, dispatch.UnknownTagError{Tag: tag}
	}
	req := []byte{tag}
	if value != nil && !f.Void() {
		var err error
		if req, err = f.Encode(*value); err != nil {
			return ResolveResult{}, err
		}
	}
	out, err := s.dispatcher.Resolve(req)
	if err != nil {
		return ResolveResult{}, err
	}
	v, present := f.Decode(out[1:])
	return ResolveResult{
		Tag:     tag,
		Name:    f.Name(),
		Present: present,
		Value:   v,
		Raw:     hex.EncodeToString(out),
	}, nil
}

// Serve runs the admin listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("node", s.Name).Str("addr", s.Addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin serve %s: %w", s.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin shutdown: %w", err)
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
