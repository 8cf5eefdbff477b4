package calc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Handler serves request sessions, one per connection.
type Handler struct {
	logger   *slog.Logger
	requests *prometheus.CounterVec
}

// NewHandler returns a Handler. Metrics are registered with registerer unless it is nil.
func NewHandler(logger *slog.Logger, registerer prometheus.Registerer) *Handler {
	return &Handler{
		logger: logger,
		requests: promauto.With(registerer).NewCounterVec(prometheus.CounterOpts{
			Name: "netcalc_requests_total",
			Help: "Number of requests evaluated, by outcome.",
		}, []string{"outcome"}),
	}
}

// Serve answers requests read from conn until conn reaches EOF or ctx is cancelled. Serve closes conn.
func (h *Handler) Serve(ctx context.Context, conn io.ReadWriteCloser) error {
	// Unblocks the scanner when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()

	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if _, err := io.WriteString(w, h.respond(line)); err != nil {
			return errors.Wrap(err, "writing response")
		}

		if err := w.Flush(); err != nil {
			return errors.Wrap(err, "flushing response")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "reading request")
	}

	return nil
}

func (h *Handler) respond(line string) string {
	result, err := Evaluate(line)
	if err != nil {
		h.requests.WithLabelValues("error").Inc()
		h.logger.Debug("Rejected request", slog.String("request", line), slog.String("error", err.Error()))

		return fmt.Sprintf("error: %s\n", err)
	}

	h.requests.WithLabelValues("ok").Inc()

	return strconv.FormatInt(result, 10) + "\n"
}
