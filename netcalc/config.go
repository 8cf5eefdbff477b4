package netcalc

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/LasseHels/netcalc/calc"
	"github.com/LasseHels/netcalc/number"
	"github.com/LasseHels/netcalc/options"
	"github.com/LasseHels/netcalc/pool"
	"github.com/LasseHels/netcalc/server"
)

const (
	defaultWorkers = 4
	defaultPort    = "31337"
	// queuePerWorker is the number of connections that may wait per worker before the accept loop blocks.
	queuePerWorker = 16
)

// Config of a NetCalc server, built from the parsed command-line options.
type Config struct {
	Workers   int `validate:"min=2"`
	QueueSize int `validate:"min=1"`
	Server    server.Config
}

// NewConfig creates a new Config from parsed command-line options, using defaults for options that were not set.
func NewConfig(opts *options.Configuration) (*Config, error) {
	if opts == nil {
		return nil, errors.New("options are required")
	}

	c := &Config{}
	c.defaults()
	c.apply(opts)

	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, "validating configuration")
	}

	return c, nil
}

// defaults sets default values for the Config.
func (c *Config) defaults() {
	c.Workers = defaultWorkers
	c.Server.Port = defaultPort
}

func (c *Config) apply(opts *options.Configuration) {
	if opts.ThreadCountSet {
		c.Workers = int(opts.ThreadCount)
	}

	if opts.PortSet {
		c.Server.Port = opts.Port
	}

	c.QueueSize = c.Workers * queuePerWorker
}

// Initialise NetCalc from the provided Config.
// This assumes that the provided Config has already been validated.
func (c *Config) Initialise(
	logger *slog.Logger,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*NetCalc, error) {
	p := pool.New(pool.Options{
		Workers:    c.Workers,
		QueueSize:  c.QueueSize,
		Logger:     logger,
		Registerer: registerer,
	})

	handler := calc.NewHandler(logger, registerer)

	s, err := server.New(c.Server, logger, dispatch(p, handler, logger), registerer)
	if err != nil {
		return nil, errors.Wrap(err, "creating server")
	}

	return New(logger, s, p, gatherer), nil
}

// validate ensures the configuration is valid.
func (c *Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("port", validatePort); err != nil {
		return errors.Wrap(err, "registering port validation")
	}

	if err := v.Struct(c); err != nil {
		var errs []error
		var valErrs validator.ValidationErrors

		if errors.As(err, &valErrs) {
			for _, e := range valErrs {
				errs = append(errs, e)
			}
		}

		return multierr.Combine(errs...)
	}

	return nil
}

// validatePort reports whether a string field holds a port number NetCalc may listen on.
func validatePort(fl validator.FieldLevel) bool {
	text := fl.Field().String()
	if len(text) > options.MaxPortLength {
		return false
	}

	n, err := number.ParseInt32(text)
	if err != nil {
		return false
	}

	return n >= options.MinPort && n <= options.MaxPort
}
