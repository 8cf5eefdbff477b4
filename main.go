package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/LasseHels/netcalc/netcalc"
	"github.com/LasseHels/netcalc/options"
)

// release is set through the linker at build time, generally from a git sha. Used for logging and error reporting.
var release string

func main() {
	os.Exit(start())
}

func start() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args, os.Stdout, os.Stderr); err != nil {
		// Option failures, help included, have already been reported together with the help menu.
		var optErr *options.Error
		if !errors.As(err, &optErr) {
			fmt.Println(err.Error())
		}

		return 1
	}

	return 0
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := options.New(stdout, stderr).Process(args)
	if err != nil {
		return errors.Wrap(err, "processing options")
	}

	cfg, err := netcalc.NewConfig(opts)
	if err != nil {
		return errors.Wrap(err, "reading configuration")
	}

	l := logger(stdout)
	l.Info(
		"Loaded configuration",
		slog.Int("workers", cfg.Workers),
		slog.Int("queue_size", cfg.QueueSize),
		slog.String("port", cfg.Server.Port),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	n, err := cfg.Initialise(l, registry, registry)
	if err != nil {
		return errors.Wrap(err, "initialising NetCalc")
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := n.Start(ctx); err != nil {
			return errors.Wrap(err, "starting NetCalc")
		}

		return nil
	})

	<-ctx.Done()

	eg.Go(func() error {
		if err := n.Stop(); err != nil {
			return errors.Wrap(err, "stopping NetCalc")
		}

		return nil
	})

	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "waiting for errgroup")
	}

	return nil
}

func logger(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	l := slog.New(handler)
	l = l.With(slog.String("release", release))

	return l
}
