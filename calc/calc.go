// Package calc evaluates NetCalc requests.
//
// A request is a single line of the form "<operation> <a> <b>", where a and b are signed 32-bit integers and the
// operation is one of add, sub, mul, div or mod. The response to each request is one line holding either the result
// or "error: " followed by the reason the request failed.
package calc

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/LasseHels/netcalc/number"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrDivisionByZero   = errors.New("division by zero")
)

type operation func(a, b int64) (int64, error)

var operations = map[string]operation{
	"add": func(a, b int64) (int64, error) { return a + b, nil },
	"sub": func(a, b int64) (int64, error) { return a - b, nil },
	"mul": func(a, b int64) (int64, error) { return a * b, nil },
	"div": func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	},
	"mod": func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a % b, nil
	},
}

// Request is a parsed request line.
type Request struct {
	Operation string
	A, B      int32
}

// ParseRequest parses a request line. Fields may be separated by any amount of whitespace.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Request{}, errors.Wrapf(ErrMalformedRequest, "expected 3 fields, got %d", len(fields))
	}

	if _, ok := operations[fields[0]]; !ok {
		return Request{}, errors.Wrapf(ErrUnknownOperation, "%q", fields[0])
	}

	a, err := number.ParseInt32(fields[1])
	if err != nil {
		return Request{}, errors.Wrap(err, "first operand")
	}

	b, err := number.ParseInt32(fields[2])
	if err != nil {
		return Request{}, errors.Wrap(err, "second operand")
	}

	return Request{Operation: fields[0], A: a, B: b}, nil
}

// Evaluate the request. Operands are widened to 64 bits, so no operation overflows.
func (r Request) Evaluate() (int64, error) {
	op, ok := operations[r.Operation]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownOperation, "%q", r.Operation)
	}

	return op(int64(r.A), int64(r.B))
}

// Evaluate parses and evaluates a request line.
func Evaluate(line string) (int64, error) {
	r, err := ParseRequest(line)
	if err != nil {
		return 0, err
	}

	return r.Evaluate()
}
