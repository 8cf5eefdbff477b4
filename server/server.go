package server

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch hands an accepted connection over for handling. Dispatch owns conn once it returns nil.
type Dispatch func(ctx context.Context, conn net.Conn) error

type Server struct {
	address  string
	network  string
	logger   *slog.Logger
	dispatch Dispatch
	accepted prometheus.Counter

	mu       sync.Mutex
	listener net.Listener
}

// New returns an initialized, but un-started Server.
func New(cfg Config, logger *slog.Logger, dispatch Dispatch, registerer prometheus.Registerer) (*Server, error) {
	if cfg.Port == "" {
		return nil, errors.Errorf("parsing port %q: port is required", cfg.Port)
	}

	port, err := nat.NewPort("tcp", cfg.Port)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing port %q", cfg.Port)
	}

	return &Server{
		address:  net.JoinHostPort(cfg.Host, port.Port()),
		network:  port.Proto(),
		logger:   logger,
		dispatch: dispatch,
		accepted: promauto.With(registerer).NewCounter(prometheus.CounterOpts{
			Name: "netcalc_connections_accepted_total",
			Help: "Number of connections accepted by the server.",
		}),
	}, nil
}

// Start listening and accept connections until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting server", slog.String("address", s.address))

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, s.network, s.address)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.address)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
	})
	defer stop()

	s.logger.Info("Listening", slog.String("address", l.Addr().String()))

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return errors.Wrap(err, "accepting connection")
		}

		s.accepted.Inc()
		s.logger.Debug("Accepted connection", slog.String("remote", conn.RemoteAddr().String()))

		if err := s.dispatch(ctx, conn); err != nil {
			s.logger.Warn(
				"Failed to dispatch connection",
				slog.String("remote", conn.RemoteAddr().String()),
				slog.String("error", err.Error()),
			)
			_ = conn.Close()
		}
	}
}

// Stop accepting connections. Connections already dispatched are not affected.
func (s *Server) Stop() error {
	s.logger.Info("Stopping server")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "closing listener")
	}
	s.logger.Info("Stopped server")

	return nil
}

// Addr returns the address the Server listens on, or nil if it is not listening yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}
