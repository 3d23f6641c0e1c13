package server

import (
	"context"

	"github.com/momentics/hioload-chat/reactor"
	"github.com/momentics/hioload-chat/transport/tcp"
)

// Server is the façade binding a real listener and the platform registry to
// an event loop.
type Server struct {
	cfg  *Config
	addr string
	loop *Loop
}

// NewServer opens the listening socket and the readiness registry.
func NewServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	reg, err := reactor.New(cfg.Mode, cfg.MaxDescriptors)
	if err != nil {
		return nil, err
	}
	ln, err := tcp.Listen(cfg.ListenAddr, tcp.DefaultBacklog)
	if err != nil {
		reg.Close()
		return nil, err
	}
	return &Server{
		cfg:  cfg,
		addr: ln.Addr(),
		loop: NewLoop(cfg, reg, ln, opts...),
	}, nil
}

// Addr is the bound listening address.
func (s *Server) Addr() string { return s.addr }

// Loop exposes the underlying event loop.
func (s *Server) Loop() *Loop { return s.loop }

// Run blocks serving clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.loop.Run(ctx)
}
