// Package netcalc wires the NetCalc server together: a TCP server that queues every accepted connection on a
// worker pool, where each connection is served as a calc session.
package netcalc

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/LasseHels/netcalc/calc"
	"github.com/LasseHels/netcalc/pool"
	"github.com/LasseHels/netcalc/server"
)

// summarised holds the runtime metrics logged alongside the netcalc_ families when NetCalc stops.
var summarised = map[string]bool{
	"go_goroutines":                 true,
	"process_resident_memory_bytes": true,
	"process_open_fds":              true,
}

// NetCalc serves calc sessions over TCP, one pool job per accepted connection.
type NetCalc struct {
	logger   *slog.Logger
	server   *server.Server
	pool     *pool.Pool
	gatherer prometheus.Gatherer
}

func New(logger *slog.Logger, s *server.Server, p *pool.Pool, gatherer prometheus.Gatherer) *NetCalc {
	return &NetCalc{
		logger:   logger,
		server:   s,
		pool:     p,
		gatherer: gatherer,
	}
}

// Start NetCalc. Start blocks until Stop is called or ctx is cancelled, and every queued connection is served.
func (n *NetCalc) Start(ctx context.Context) error {
	n.logger.Info("Starting NetCalc")

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := n.pool.Run(ctx); err != nil {
			return errors.Wrap(err, "running worker pool")
		}

		return nil
	})

	eg.Go(func() error {
		// No more connections can be queued once the server has stopped accepting them.
		defer n.pool.Close()

		if err := n.server.Start(ctx); err != nil {
			return errors.Wrap(err, "starting server")
		}

		return nil
	})

	return eg.Wait()
}

func (n *NetCalc) Stop() error {
	n.logger.Info("Stopping NetCalc")

	var err error
	if stopErr := n.server.Stop(); stopErr != nil {
		err = multierr.Append(err, errors.Wrap(stopErr, "stopping server"))
	}

	if summaryErr := n.logSummary(); summaryErr != nil {
		err = multierr.Append(err, errors.Wrap(summaryErr, "summarising metrics"))
	}

	if err != nil {
		return err
	}

	n.logger.Info("Stopped NetCalc")
	return nil
}

// Addr returns the address NetCalc listens on, or nil if it is not listening yet.
func (n *NetCalc) Addr() net.Addr {
	return n.server.Addr()
}

// logSummary logs the current value of every NetCalc counter and gauge, and of the summarised runtime metrics that
// the gatherer exposes.
func (n *NetCalc) logSummary() error {
	families, err := n.gatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}

	var attrs []any
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "netcalc_") && !summarised[family.GetName()] {
			continue
		}

		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}

		attrs = append(attrs, slog.Float64(family.GetName(), total))
	}

	n.logger.Info("Metrics summary", attrs...)

	return nil
}

// dispatch queues every accepted connection on p, to be served by handler.
func dispatch(p *pool.Pool, handler *calc.Handler, logger *slog.Logger) server.Dispatch {
	return func(ctx context.Context, conn net.Conn) error {
		remote := conn.RemoteAddr().String()

		return p.Submit(ctx, func(ctx context.Context) {
			if err := handler.Serve(ctx, conn); err != nil {
				logger.Warn("Failed to serve connection", slog.String("remote", remote), slog.String("error", err.Error()))
			}
		})
	}
}
