package options

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned when the argument vector is absent or lacks a program name.
	ErrInvalidInput = errors.New("invalid argument vector")
	// ErrDuplicateOption is returned when an option is given more than once.
	ErrDuplicateOption = errors.New("option already set")
	// ErrInvalidNumber is returned when an option value is not a well-formed integer.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrOutOfRange is returned when an option value is outside the range accepted for that option.
	ErrOutOfRange = errors.New("value out of range")
	// ErrValueTooLong is returned when an option value has more characters than allowed.
	ErrValueTooLong = errors.New("value too long")
	// ErrMissingValue is returned when an option that requires a value is the last token.
	ErrMissingValue = errors.New("option requires an argument")
	// ErrUnknownOption is returned for a flag character that is not recognised.
	ErrUnknownOption = errors.New("unknown option")
	// ErrUnexpectedArgument is returned when tokens remain that were neither flags nor flag values.
	ErrUnexpectedArgument = errors.New("unexpected arguments")
	// ErrHelp is returned when help was requested. It is not a diagnostic, but the server must not start.
	ErrHelp = errors.New("help requested")
)

// Error describes why Process refused an argument vector.
//
// Kind is always one of the package's sentinel errors, so callers can use errors.Is to branch on it.
type Error struct {
	Kind error
	// Flag is the option byte the failure relates to, or zero.
	Flag byte
	// Args lists the unconsumed tokens for ErrUnexpectedArgument.
	Args []string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Flag != 0 {
		_, _ = fmt.Fprintf(&b, "option '-%s': ", []byte{e.Flag})
	}

	b.WriteString(e.Kind.Error())

	if len(e.Args) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Args, " "))
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

func flagError(kind error, flag byte, cause error) *Error {
	return &Error{Kind: kind, Flag: flag, Cause: cause}
}
