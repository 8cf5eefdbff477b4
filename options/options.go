// Package options turns the NetCalc argument vector into a validated Configuration.
//
// Flags follow getopt conventions for the option string "n:p:h": single-character flags introduced by one hyphen,
// flags may be clustered (-hn4), a value may be attached (-n4) or given as the next token (-n 4), and "--" ends
// option scanning. Tokens that are not flags are collected while scanning continues, and are rejected once the
// scan is over. Long options are not supported.
package options

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/LasseHels/netcalc/number"
)

// Processor parses argument vectors. A Processor keeps no state between calls.
type Processor struct {
	out  io.Writer
	diag io.Writer
}

// New returns a Processor that writes help to out and diagnostics to diag.
func New(out, diag io.Writer) *Processor {
	return &Processor{
		out:  out,
		diag: diag,
	}
}

// scan holds the state of a single pass over an argument vector.
type scan struct {
	args        []string
	next        int
	positionals []string
	cfg         *Configuration
}

// Process parses args, where args[0] is the program name.
//
// Process stops at the first problem it finds and returns an *Error. Before returning an error, Process writes a
// diagnostic line and the help menu; ErrHelp only writes the help menu. A nil error means the server may start.
func (p *Processor) Process(args []string) (*Configuration, error) {
	cfg, err := p.process(args)
	if err != nil {
		p.report(err)
		p.PrintHelp()

		return nil, err
	}

	return cfg, nil
}

func (p *Processor) process(args []string) (*Configuration, error) {
	if len(args) == 0 {
		return nil, &Error{Kind: ErrInvalidInput, Cause: errors.New("missing program name")}
	}

	s := &scan{
		args: args,
		next: 1,
		cfg:  &Configuration{},
	}

	for s.next < len(s.args) {
		token := s.args[s.next]
		s.next++

		if token == "--" {
			s.positionals = append(s.positionals, s.args[s.next:]...)
			break
		}

		if len(token) < 2 || token[0] != '-' {
			s.positionals = append(s.positionals, token)
			continue
		}

		if err := s.cluster(token[1:]); err != nil {
			return nil, err
		}
	}

	if len(s.positionals) > 0 {
		return nil, &Error{Kind: ErrUnexpectedArgument, Args: s.positionals}
	}

	return s.cfg, nil
}

// cluster handles the flag bytes of a single token, with the leading hyphen removed.
func (s *scan) cluster(flags string) error {
	for i := 0; i < len(flags); i++ {
		switch flag := flags[i]; flag {
		case 'h':
			return &Error{Kind: ErrHelp}
		case 'n', 'p':
			value, err := s.value(flag, flags[i+1:])
			if err != nil {
				return err
			}

			if flag == 'n' {
				return s.threads(value)
			}

			return s.port(value)
		default:
			return flagError(ErrUnknownOption, flag, nil)
		}
	}

	return nil
}

// value returns the value of flag: the rest of its cluster if there is one, otherwise the next token.
func (s *scan) value(flag byte, rest string) (string, error) {
	if rest != "" {
		return rest, nil
	}

	if s.next >= len(s.args) {
		return "", flagError(ErrMissingValue, flag, nil)
	}

	value := s.args[s.next]
	s.next++

	return value, nil
}

func (s *scan) threads(value string) error {
	if s.cfg.ThreadCountSet {
		return flagError(ErrDuplicateOption, 'n', nil)
	}

	n, err := number.ParseInt32(value)
	if err != nil {
		return flagError(ErrInvalidNumber, 'n', err)
	}

	if n < MinThreads {
		return flagError(ErrOutOfRange, 'n', errors.Errorf("%d is less than %d", n, MinThreads))
	}

	s.cfg.ThreadCountSet = true
	s.cfg.ThreadCount = n

	return nil
}

func (s *scan) port(value string) error {
	if s.cfg.PortSet {
		return flagError(ErrDuplicateOption, 'p', nil)
	}

	n, err := number.ParseInt32(value)
	if err != nil {
		return flagError(ErrInvalidNumber, 'p', err)
	}

	if n < MinPort || n > MaxPort {
		return flagError(ErrOutOfRange, 'p', errors.Errorf("%d is not between %d and %d", n, MinPort, MaxPort))
	}

	if len(value) > MaxPortLength {
		return flagError(ErrValueTooLong, 'p', errors.Errorf("%q is longer than %d characters", value, MaxPortLength))
	}

	s.cfg.PortSet = true
	s.cfg.Port = strings.Clone(value)

	return nil
}

// report writes the diagnostic line for err. Help requests are not diagnosed.
func (p *Processor) report(err error) {
	var optErr *Error
	if !errors.As(err, &optErr) {
		p.diagnose("Unable to process options: %s", err)
		return
	}

	switch optErr.Kind {
	case ErrHelp:
	case ErrMissingValue, ErrUnknownOption:
		p.reportInvalidOption(optErr.Flag)
	case ErrUnexpectedArgument:
		p.diagnose("Invalid arguments encountered: %s", strings.Join(optErr.Args, " "))
	case ErrInvalidInput:
		p.diagnose("Unable to process options: %s", optErr)
	default:
		p.diagnose("Unable to process option: %s", optErr)
	}
}

// reportInvalidOption distinguishes a value-taking flag given without a value from a flag that does not exist.
func (p *Processor) reportInvalidOption(flag byte) {
	if flag == 'n' || flag == 'p' {
		p.diagnose("Option '-%s' requires an argument.", []byte{flag})
		return
	}

	p.diagnose("Unknown option '-%s'.", []byte{flag})
}

func (p *Processor) diagnose(format string, a ...any) {
	_, _ = fmt.Fprintf(p.diag, format+"\n", a...)
}
